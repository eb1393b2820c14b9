package repository

import (
	"context"
	"database/sql"
	"strings"

	"backoffice-api/internal/model"
)

// RBACRepo owns the roles, permissions and join tables.  Besides the two
// lookups the identity resolver needs it carries the CRUD operations behind
// the settings endpoints.  Every mutation touching a join table replaces
// the full set inside one transaction (delete-then-insert, never
// incremental).
type RBACRepo struct{ DB *sql.DB }

func NewRBACRepo(db *sql.DB) *RBACRepo { return &RBACRepo{DB: db} }

// RolesForUser returns every role assigned to the user, sorted by name.
func (r *RBACRepo) RolesForUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT r.id, r.name FROM roles r JOIN user_roles ur ON ur.role_id=r.id WHERE ur.user_id=? ORDER BY r.name",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// PermissionsForRole returns every permission granted to the role.
func (r *RBACRepo) PermissionsForRole(ctx context.Context, roleID uint64) ([]model.Permission, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT p.id, p.name, p.`group` FROM permissions p JOIN role_permissions rp ON rp.permission_id=p.id WHERE rp.role_id=? ORDER BY p.name",
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Permission
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Group); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AssignRoles replaces the user's full role set atomically.  Unknown role
// ids abort the transaction with ErrNotFound.  The user create and update
// transactions delegate to the same replacement routine.
func (r *RBACRepo) AssignRoles(ctx context.Context, userID uint64, roleIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceUserRoles(ctx, tx, userID, roleIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// replaceUserRoles swaps a user's full role set inside the caller's
// transaction: validate every id, delete the old rows, insert the new
// ones.  The delete is a no-op for freshly created users.  Submitted ids
// are de-duplicated so repeats cannot trip the join-table primary key.
func replaceUserRoles(ctx context.Context, tx *sql.Tx, userID uint64, roleIDs []uint64) error {
	roleIDs = dedupeIDs(roleIDs)
	for _, roleID := range roleIDs {
		var id uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE id=? LIMIT 1", roleID).Scan(&id)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

// dedupeIDs removes repeated ids while keeping the first-seen order.
func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// RolesExcludingSuperuser lists every role except the reserved superuser
// sentinel, sorted by name.  This feeds the admin UI role selector.
func (r *RBACRepo) RolesExcludingSuperuser(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name FROM roles WHERE name<>? ORDER BY name", model.SuperuserRole)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// ----- roles CRUD (settings) -----

// ListRoles returns a page of roles matching the optional name search,
// plus the total count.
func (r *RBACRepo) ListRoles(ctx context.Context, search string, page, limit int) ([]model.Role, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	where := "1=1"
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		where = "name LIKE ?"
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM roles WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM roles WHERE "+where+" ORDER BY id DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, role)
	}
	return out, total, rows.Err()
}

// CreateRole inserts a role with its permission grants in one transaction.
func (r *RBACRepo) CreateRole(ctx context.Context, name string, permissionIDs []uint64) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", name).Scan(&exists)
	if err == nil {
		return 0, ErrNameExists
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, pid := range dedupeIDs(permissionIDs) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO role_permissions (role_id, permission_id) VALUES (?,?)", uint64(id), pid); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetRole fetches a single role row.
func (r *RBACRepo) GetRole(ctx context.Context, id uint64) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM roles WHERE id=? LIMIT 1",
		id).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Role{}, ErrNotFound
	}
	return role, err
}

// UpdateRole renames a role and replaces its permission grants in one
// transaction.
func (r *RBACRepo) UpdateRole(ctx context.Context, id uint64, name string, permissionIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT name FROM roles WHERE id=? LIMIT 1", id).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var other uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM roles WHERE name=? AND id<>? LIMIT 1", name, id).Scan(&other)
	if err == nil {
		return ErrNameExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE roles SET name=?, updated_at=NOW() WHERE id=?", name, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id=?", id); err != nil {
		return err
	}
	for _, pid := range dedupeIDs(permissionIDs) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO role_permissions (role_id, permission_id) VALUES (?,?)", id, pid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteRole removes a role together with its join rows.
func (r *RBACRepo) DeleteRole(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	err = tx.QueryRowContext(ctx, "SELECT name FROM roles WHERE id=? LIMIT 1", id).Scan(&name)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE role_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// UsersWithRole returns the ids of every user holding the role.  Callers
// invalidate these users' cached identities after role mutations.
func (r *RBACRepo) UsersWithRole(ctx context.Context, roleID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id FROM user_roles WHERE role_id=?", roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UsersWithPermission returns the ids of every user whose roles grant the
// permission.  Callers invalidate these users' cached identities after
// permission mutations.
func (r *RBACRepo) UsersWithPermission(ctx context.Context, permissionID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT ur.user_id FROM user_roles ur JOIN role_permissions rp ON rp.role_id=ur.role_id WHERE rp.permission_id=?",
		permissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ----- permissions CRUD (settings) -----

// ListPermissions returns a page of permissions matching the optional
// search over name and group, plus the total count.
func (r *RBACRepo) ListPermissions(ctx context.Context, search string, page, limit int) ([]model.Permission, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	where := "1=1"
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		where = "(name LIKE ? OR `group` LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM permissions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, `group`, created_at, updated_at FROM permissions WHERE "+where+" ORDER BY id DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Permission{}
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Group, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// CreatePermissions inserts several permission names under one group in a
// single transaction.  Any duplicate name aborts the whole batch.
func (r *RBACRepo) CreatePermissions(ctx context.Context, names []string, group string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range names {
		var exists uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM permissions WHERE name=? LIMIT 1", name).Scan(&exists)
		if err == nil {
			return ErrNameExists
		}
		if err != sql.ErrNoRows {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO permissions (name, `group`) VALUES (?,?)", name, group); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPermission fetches a single permission row.
func (r *RBACRepo) GetPermission(ctx context.Context, id uint64) (model.Permission, error) {
	var p model.Permission
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, `group`, created_at, updated_at FROM permissions WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Name, &p.Group, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Permission{}, ErrNotFound
	}
	return p, err
}

// UpdatePermission renames a permission or moves it to another group.
func (r *RBACRepo) UpdatePermission(ctx context.Context, id uint64, name, group string) error {
	var other uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM permissions WHERE name=? AND id<>? LIMIT 1", name, id).Scan(&other)
	if err == nil {
		return ErrNameExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	res, err := r.DB.ExecContext(ctx,
		"UPDATE permissions SET name=?, `group`=?, updated_at=NOW() WHERE id=?", name, group, id)
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

// DeletePermission removes a permission together with its role grants.
func (r *RBACRepo) DeletePermission(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	err = tx.QueryRowContext(ctx, "SELECT name FROM permissions WHERE id=? LIMIT 1", id).Scan(&name)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE permission_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM permissions WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// PermissionOption is a permission entry of the grouped selector response.
type PermissionOption struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// PermissionsGrouped returns all permissions keyed by their group label,
// for the admin UI permission picker.
func (r *RBACRepo) PermissionsGrouped(ctx context.Context) (map[string][]PermissionOption, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, `group` FROM permissions ORDER BY `group`, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]PermissionOption{}
	for rows.Next() {
		var (
			opt   PermissionOption
			group string
		)
		if err := rows.Scan(&opt.ID, &opt.Name, &group); err != nil {
			return nil, err
		}
		if group == "" {
			group = "Ungrouped"
		}
		out[group] = append(out[group], opt)
	}
	return out, rows.Err()
}

// RoleDetail is the admin view of a role: every permission in the system
// grouped by label, flagged with whether this role holds it.
type RoleDetail struct {
	Role   model.Role
	Groups []RolePermissionGroup
}

// RolePermissionGroup is one group of the role detail matrix.
type RolePermissionGroup struct {
	Group string               `json:"group"`
	Names []RolePermissionFlag `json:"names"`
}

// RolePermissionFlag marks a single permission as assigned or not.
type RolePermissionFlag struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	IsAssigned bool   `json:"is_assigned"`
}

// GetRoleDetail builds the assignment matrix for one role.
func (r *RBACRepo) GetRoleDetail(ctx context.Context, id uint64) (RoleDetail, error) {
	role, err := r.GetRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}

	assigned := map[uint64]bool{}
	granted, err := r.PermissionsForRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	for _, p := range granted {
		assigned[p.ID] = true
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, `group` FROM permissions ORDER BY `group`, name")
	if err != nil {
		return RoleDetail{}, err
	}
	defer rows.Close()

	detail := RoleDetail{Role: role, Groups: []RolePermissionGroup{}}
	index := map[string]int{}
	for rows.Next() {
		var (
			pid   uint64
			name  string
			group string
		)
		if err := rows.Scan(&pid, &name, &group); err != nil {
			return RoleDetail{}, err
		}
		if group == "" {
			group = "Ungrouped"
		}
		flag := RolePermissionFlag{ID: pid, Name: name, IsAssigned: assigned[pid]}
		if i, ok := index[group]; ok {
			detail.Groups[i].Names = append(detail.Groups[i].Names, flag)
		} else {
			index[group] = len(detail.Groups)
			detail.Groups = append(detail.Groups, RolePermissionGroup{Group: group, Names: []RolePermissionFlag{flag}})
		}
	}
	return detail, rows.Err()
}
