package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Saman-dev12/civic/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, department, employee_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.Department,
		&user.EmployeeID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, name, email, phone, password_hash, role, department, employee_id, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Department,
		user.EmployeeID,
		user.IsActive,
	)
	return mapWriteError(err)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return models.User{}, mapNoRows(err, ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.User{}, mapNoRows(err, ErrUserNotFound)
	}
	return user, nil
}

// GetStaff returns an officer or admin account.
func (r *UserRepository) GetStaff(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND role IN ('officer', 'admin')`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.User{}, mapNoRows(err, ErrUserNotFound)
	}
	return user, nil
}

// ListOfficers returns every officer, newest first, with assignment counts.
func (r *UserRepository) ListOfficers(ctx context.Context) ([]models.Officer, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.phone, u.password_hash, u.role, u.department, u.employee_id,
		       u.is_active, u.created_at, u.updated_at,
		       COUNT(a.id),
		       COUNT(a.id) FILTER (WHERE a.status = 'assigned'),
		       COUNT(a.id) FILTER (WHERE a.status = 'in_progress'),
		       COUNT(a.id) FILTER (WHERE a.status = 'completed')
		FROM users u
		LEFT JOIN assignments a ON a.officer_id = u.id
		WHERE u.role = 'officer'
		GROUP BY u.id
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	officers := []models.Officer{}
	for rows.Next() {
		var o models.Officer
		if err := rows.Scan(
			&o.ID,
			&o.Name,
			&o.Email,
			&o.Phone,
			&o.PasswordHash,
			&o.Role,
			&o.Department,
			&o.EmployeeID,
			&o.IsActive,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.Stats.Total,
			&o.Stats.Assigned,
			&o.Stats.InProgress,
			&o.Stats.Completed,
		); err != nil {
			return nil, err
		}
		officers = append(officers, o)
	}
	return officers, rows.Err()
}

// ListActiveByRole returns active accounts of one role, oldest first.
func (r *UserRepository) ListActiveByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_active ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile writes the editable staff fields of user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user models.User) error {
	const query = `
		UPDATE users
		SET name = $2,
		    email = $3,
		    phone = $4,
		    department = $5,
		    employee_id = $6,
		    is_active = $7,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.Department,
		user.EmployeeID,
		user.IsActive,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, role).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
