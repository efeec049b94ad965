// cookies.go holds the cookie names shared by the auth middleware and the
// login/logout handlers. Tenant and admin sessions use separate cookies so the
// two trust domains never share a credential path.
package auth

const (
	// SessionCookieName carries the tenant session ID
	SessionCookieName = "capturelog_session"

	// AdminSessionCookieName carries the stateless admin session token
	AdminSessionCookieName = "capturelog_admin_session"
)
