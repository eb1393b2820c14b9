package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"backoffice-api/internal/model"
	"backoffice-api/internal/utils"
)

// UserRepo is the credential store.  All lookup methods used on the
// authentication path filter out soft-deleted rows; plaintext passwords
// never leave this package boundary, only bcrypt hashes are stored.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,name,email,password,status,remark,email_verified_at,deleted_at,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status,
		&u.Remark, &u.EmailVerifiedAt, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByEmail fetches a live user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1", email))
}

// GetByID fetches a live user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id))
}

// CreateUserParams carries the fields for user creation.  RoleIDs may be
// empty; registration passes none while the admin create endpoint may
// assign roles at creation time.
type CreateUserParams struct {
	Name     string
	Email    string
	Password string // plaintext, hashed here
	Status   string
	Remark   *string
	RoleIDs  []uint64
}

// Create inserts a user together with its role assignments in a single
// transaction and returns the new id.  Email uniqueness is enforced among
// live users only, so a soft-deleted account does not block re-use of its
// address.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams, cost int) (uint64, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	hash, err := utils.HashPassword(p.Password, cost)
	if err != nil {
		return 0, err
	}
	if p.Status == "" {
		p.Status = model.StatusActive
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1", p.Email).Scan(&exists)
	if err == nil {
		return 0, ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, email, password, status, remark) VALUES (?,?,?,?,?)",
		p.Name, p.Email, hash, p.Status, p.Remark)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := replaceUserRoles(ctx, tx, uint64(id), p.RoleIDs); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UserSummary is one row of the admin user listing.
type UserSummary struct {
	ID        uint64
	Name      string
	Email     string
	Status    string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListUsersParams controls search and pagination for List.
type ListUsersParams struct {
	Search string
	Status string
	Page   int
	Limit  int
}

// List returns a page of live users with their role names aggregated, plus
// the total count matching the filter.
func (r *UserRepo) List(ctx context.Context, p ListUsersParams) ([]UserSummary, int, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}

	where := "u.deleted_at IS NULL"
	args := []interface{}{}
	if s := strings.TrimSpace(p.Search); s != "" {
		where += " AND (u.name LIKE ? OR u.email LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}
	if p.Status != "" {
		where += " AND u.status=?"
		args = append(args, p.Status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users u WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT u.id,u.name,u.email,u.status,u.created_at,u.updated_at," +
		" COALESCE(GROUP_CONCAT(r.name ORDER BY r.name SEPARATOR ','),'')" +
		" FROM users u" +
		" LEFT JOIN user_roles ur ON ur.user_id=u.id" +
		" LEFT JOIN roles r ON r.id=ur.role_id" +
		" WHERE " + where +
		" GROUP BY u.id ORDER BY u.id DESC LIMIT ? OFFSET ?"
	args = append(args, p.Limit, (p.Page-1)*p.Limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]UserSummary, 0, p.Limit)
	for rows.Next() {
		var s UserSummary
		var roles string
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Status, &s.CreatedAt, &s.UpdatedAt, &roles); err != nil {
			return nil, 0, err
		}
		if roles != "" {
			s.Roles = strings.Split(roles, ",")
		} else {
			s.Roles = []string{}
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UserDetail is the admin view of a single user including role ids.
type UserDetail struct {
	ID        uint64
	Name      string
	Email     string
	Status    string
	Remark    *string
	Roles     []model.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetDetail returns a live user together with its assigned roles.
func (r *UserRepo) GetDetail(ctx context.Context, id uint64) (UserDetail, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT r.id, r.name FROM roles r JOIN user_roles ur ON ur.role_id=r.id WHERE ur.user_id=? ORDER BY r.name",
		id)
	if err != nil {
		return UserDetail{}, err
	}
	defer rows.Close()

	d := UserDetail{
		ID: u.ID, Name: u.Name, Email: u.Email, Status: u.Status,
		Remark: u.Remark, Roles: []model.Role{}, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return UserDetail{}, err
		}
		d.Roles = append(d.Roles, role)
	}
	return d, rows.Err()
}

// UpdateUserParams carries the mutable admin-editable fields.
type UpdateUserParams struct {
	Name    string
	Email   string
	Status  string
	Remark  *string
	RoleIDs []uint64
}

// Update rewrites a user's mutable fields and replaces its full role set in
// one transaction.  Role replacement is delete-then-insert, never
// incremental, so an empty RoleIDs strips every assignment.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UpdateUserParams) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var other uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? AND id<>? AND deleted_at IS NULL LIMIT 1",
		p.Email, id).Scan(&other)
	if err == nil {
		return ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	if p.Status == "" {
		p.Status = current
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, status=?, remark=?, updated_at=NOW() WHERE id=?",
		p.Name, p.Email, p.Status, p.Remark, id); err != nil {
		return err
	}
	if err := replaceUserRoles(ctx, tx, id, p.RoleIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// SoftDelete stamps deleted_at on a live user.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at=NOW() WHERE id=? AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile changes a user's own name and email.  The email must not be
// in use by another live user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var other uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? AND id<>? AND deleted_at IS NULL LIMIT 1",
		email, id).Scan(&other)
	if err == nil {
		return ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, updated_at=NOW() WHERE id=? AND deleted_at IS NULL",
		name, email, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password=?, updated_at=NOW() WHERE id=? AND deleted_at IS NULL",
		hash, id)
	return err
}
