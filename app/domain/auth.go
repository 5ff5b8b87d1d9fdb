package domain

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer token claims the service understands
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	Scope string   `json:"scp,omitempty"`
	jwt.RegisteredClaims
}

// Scopes returns the space separated scp entries followed by the roles.
func (c *Claims) Scopes() []string {
	scopes := strings.Fields(c.Scope)
	return append(scopes, c.Roles...)
}

// AuthContext is the authenticated caller attached to a request
type AuthContext struct {
	Subject   string   `json:"subject"`
	Roles     []string `json:"roles"`
	Scopes    []string `json:"scopes"`
	Anonymous bool     `json:"anonymous"`
}

// AnonymousAuth is attached when authentication is disabled.
func AnonymousAuth() *AuthContext {
	return &AuthContext{Subject: "anonymous", Anonymous: true}
}

type authContextKey struct{}

// ContextWithAuth returns a copy of ctx carrying auth
func ContextWithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFrom returns the caller stored in ctx
func AuthFrom(ctx context.Context) (*AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey{}).(*AuthContext)
	return auth, ok && auth != nil
}

// ActorID names the caller in ctx for audit records. Requests without an
// attached caller are attributed to "system".
func ActorID(ctx context.Context) string {
	if auth, ok := AuthFrom(ctx); ok && auth.Subject != "" {
		return auth.Subject
	}
	return "system"
}

// RequirementKind is how a role or permission list has to be satisfied
type RequirementKind string

const (
	RequireAny        RequirementKind = "any"
	RequireAll        RequirementKind = "all"
	RequireNone       RequirementKind = "none"
	RequireAdmin      RequirementKind = "admin"
	RequireReadOnly   RequirementKind = "read_only"
	RequireFullAccess RequirementKind = "full_access"
)

// RoleRequirement constrains the roles a token must carry
type RoleRequirement struct {
	Kind  RequirementKind
	Roles []string
}

// PermissionRequirement constrains the scopes a token must carry
type PermissionRequirement struct {
	Kind        RequirementKind
	Permissions []string
}
