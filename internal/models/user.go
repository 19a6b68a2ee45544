package models

import "time"

type UserRole string

const (
	UserRoleCitizen UserRole = "citizen"
	UserRoleOfficer UserRole = "officer"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCitizen, UserRoleOfficer, UserRoleAdmin:
		return true
	}
	return false
}

// Staff reports whether the role belongs to the admin dashboard side.
func (r UserRole) Staff() bool {
	return r == UserRoleOfficer || r == UserRoleAdmin
}

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash []byte
	Role         UserRole
	Department   *string
	EmployeeID   *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) DepartmentName() string {
	if u.Department == nil {
		return ""
	}
	return *u.Department
}

type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}

// OfficerStats counts an officer's assignments by status.
type OfficerStats struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Officer is a staff account with its assignment counters.
type Officer struct {
	User
	Stats OfficerStats
}
