package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"navius/app/config"
	"navius/app/domain"
	apperrors "navius/app/utils/errors"
)

const authContextKey = "auth"


// AuthMiddleware validates HMAC-signed bearer tokens and enforces role and
// permission requirements.
type AuthMiddleware struct {
	cfg    config.AuthConfig
	secret []byte
	parser *jwt.Parser
	logger *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware. With auth disabled every
// request carries an anonymous AuthContext.
func NewAuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) *AuthMiddleware {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &AuthMiddleware{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
		logger: logger.With("component", "auth_middleware"),
	}
}

// RequireAuth attaches the caller's AuthContext or rejects the request
func (m *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := GetAuthContext(c); ok {
				return next(c)
			}

			auth, err := m.authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if m.cfg.Debug {
					m.logger.Debug("Rejected bearer token", "path", c.Request().URL.Path, "error", err)
				}
				return err
			}

			setAuthContext(c, auth)
			return next(c)
		}
	}
}

// Require authenticates the request and checks both requirements
func (m *AuthMiddleware) Require(roles domain.RoleRequirement, perms domain.PermissionRequirement) echo.MiddlewareFunc {
	authenticate := m.RequireAuth()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		check := func(c echo.Context) error {
			auth, _ := GetAuthContext(c)
			if auth.Anonymous {
				return next(c)
			}
			if !m.rolesSatisfied(auth.Roles, roles) {
				m.debugDenied(c, auth, "missing required role")
				return apperrors.NewForbidden("missing required role")
			}
			if !satisfies(auth.Scopes, perms.Kind, perms.Permissions) {
				m.debugDenied(c, auth, "missing required permission")
				return apperrors.NewForbidden("missing required permission")
			}
			return next(c)
		}
		return authenticate(check)
	}
}

// RequireAny allows callers holding any of the role categories
func (m *AuthMiddleware) RequireAny(kinds ...domain.RequirementKind) echo.MiddlewareFunc {
	var roles []string
	for _, kind := range kinds {
		roles = append(roles, m.cfg.RoleMappings[string(kind)]...)
	}
	return m.Require(
		domain.RoleRequirement{Kind: domain.RequireAny, Roles: roles},
		domain.PermissionRequirement{Kind: domain.RequireNone},
	)
}

func (m *AuthMiddleware) debugDenied(c echo.Context, auth *domain.AuthContext, reason string) {
	if m.cfg.Debug {
		m.logger.Debug("Authorization denied",
			"path", c.Request().URL.Path,
			"subject", auth.Subject,
			"roles", auth.Roles,
			"reason", reason)
	}
}

func (m *AuthMiddleware) authenticate(header string) (*domain.AuthContext, error) {
	if !m.cfg.Enabled {
		return domain.AnonymousAuth(), nil
	}
	if header == "" {
		return nil, apperrors.NewUnauthorized("missing Authorization header")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "invalid token").WithDetails("expected a Bearer token")
	}
	token = strings.TrimSpace(token)
	if !wellFormed(token) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "invalid token").WithDetails("malformed token")
	}

	claims := &domain.Claims{}
	_, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.ErrCodeTokenExpired, "token expired")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidToken, "invalid token", err)
	}

	return &domain.AuthContext{
		Subject: claims.Subject,
		Roles:   claims.Roles,
		Scopes:  claims.Scopes(),
	}, nil
}

// wellFormed reports whether token is three non-empty base64url segments
func wellFormed(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(p, "=")); err != nil {
			return false
		}
	}
	return true
}

func (m *AuthMiddleware) rolesSatisfied(have []string, req domain.RoleRequirement) bool {
	switch req.Kind {
	case domain.RequireAdmin, domain.RequireReadOnly, domain.RequireFullAccess:
		return satisfies(have, domain.RequireAny, m.cfg.RoleMappings[string(req.Kind)])
	default:
		return satisfies(have, req.Kind, req.Roles)
	}
}

// satisfies checks have against want. An empty want list always passes.
func satisfies(have []string, kind domain.RequirementKind, want []string) bool {
	if len(want) == 0 {
		return true
	}
	switch kind {
	case domain.RequireAll:
		for _, w := range want {
			if !slices.Contains(have, w) {
				return false
			}
		}
		return true
	case domain.RequireNone, "":
		return true
	default:
		for _, w := range want {
			if slices.Contains(have, w) {
				return true
			}
		}
		return false
	}
}

func setAuthContext(c echo.Context, auth *domain.AuthContext) {
	c.Set(authContextKey, auth)
	ctx := domain.ContextWithAuth(c.Request().Context(), auth)
	c.SetRequest(c.Request().WithContext(ctx))
}

// GetAuthContext returns the caller attached by RequireAuth
func GetAuthContext(c echo.Context) (*domain.AuthContext, bool) {
	auth, ok := c.Get(authContextKey).(*domain.AuthContext)
	return auth, ok
}

// AuthFromContext returns the caller stored in a request context
func AuthFromContext(ctx context.Context) (*domain.AuthContext, bool) {
	return domain.AuthFrom(ctx)
}
