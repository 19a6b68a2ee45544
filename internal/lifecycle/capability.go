package lifecycle

import "github.com/Saman-dev12/civic/internal/models"

// Capability is a single permission checked by an operation.
type Capability uint16

const (
	CapFileComplaint Capability = 1 << iota
	CapViewAllComplaints
	CapCreateAssignment
	CapUpdateOwnAssignment
	CapUpdateAnyAssignment
	CapOverrideBoundComplaintStatus
	CapOverrideAnyComplaintStatus
	CapComment
	CapViewReports
	CapViewDepartmentReports
	CapManageOfficers
	CapManageSettings
)

var roleCapabilities = map[models.UserRole]Capability{
	models.UserRoleCitizen: CapFileComplaint | CapComment,
	models.UserRoleOfficer: CapUpdateOwnAssignment | CapOverrideBoundComplaintStatus |
		CapComment | CapViewReports,
	models.UserRoleAdmin: CapViewAllComplaints | CapCreateAssignment | CapUpdateAnyAssignment |
		CapOverrideAnyComplaintStatus | CapComment | CapViewReports | CapViewDepartmentReports |
		CapManageOfficers | CapManageSettings,
}

// Principal is the authenticated actor behind a request, as resolved by
// the identity gate.
type Principal struct {
	ID         string
	Role       models.UserRole
	Department string
}

func (p Principal) Can(c Capability) bool {
	return roleCapabilities[p.Role]&c == c
}

func PrincipalFromUser(u models.User) Principal {
	return Principal{
		ID:         u.ID,
		Role:       u.Role,
		Department: u.DepartmentName(),
	}
}
