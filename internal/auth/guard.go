package auth

// The guard decides allow/deny for a resolved identity.  Both check modes
// require a non-nil identity first: absence of identity is always
// ErrUnauthenticated (401) and never ErrForbidden (403), so permission
// requirements are never leaked to unauthenticated callers.  The superuser
// sentinel role bypasses both modes unconditionally.

// RequireRoles allows when the identity is a superuser or holds ANY of
// the given role names.
func RequireRoles(ident *UserInformation, roleNames []string) error {
	if ident == nil {
		return ErrUnauthenticated
	}
	if ident.IsSuperuser() {
		return nil
	}
	for _, name := range roleNames {
		if ident.HasRole(name) {
			return nil
		}
	}
	return ErrForbidden
}

// RequirePermissions allows when the identity is a superuser or holds ALL
// of the given permission names.
func RequirePermissions(ident *UserInformation, permissionNames []string) error {
	if ident == nil {
		return ErrUnauthenticated
	}
	if ident.IsSuperuser() {
		return nil
	}
	for _, name := range permissionNames {
		if !ident.HasPermission(name) {
			return ErrForbidden
		}
	}
	return nil
}
