// context.go defines the AuthorizationContext, the sole output of the auth
// core consumed by downstream business services.
package services

// AuthorizationContext is the resolved principal and tenant scope for one
// request. It is ephemeral: built by the combined auth middleware (or token
// validation) and never persisted.
type AuthorizationContext struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
}
