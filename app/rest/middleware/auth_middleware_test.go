package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navius/app/config"
	"navius/app/domain"
	apperrors "navius/app/utils/errors"
	"navius/app/utils/logger"
)

const testSecret = "test-secret"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:  true,
		Issuer:   "navius-test",
		Audience: "navius-api",
		Secret:   testSecret,
		RoleMappings: map[string][]string{
			config.RoleCategoryAdmin:      {"admin"},
			config.RoleCategoryReadOnly:   {"reader"},
			config.RoleCategoryFullAccess: {"writer"},
		},
	}
}

type tokenOpts struct {
	method   jwt.SigningMethod
	secret   string
	issuer   string
	audience string
	expires  time.Time
	roles    []string
	scope    string
}

func signToken(t *testing.T, o tokenOpts) string {
	t.Helper()

	if o.method == nil {
		o.method = jwt.SigningMethodHS256
	}
	if o.secret == "" {
		o.secret = testSecret
	}
	if o.issuer == "" {
		o.issuer = "navius-test"
	}
	if o.audience == "" {
		o.audience = "navius-api"
	}
	if o.expires.IsZero() {
		o.expires = time.Now().Add(time.Hour)
	}

	claims := domain.Claims{
		Roles: o.roles,
		Scope: o.scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    o.issuer,
			Audience:  jwt.ClaimStrings{o.audience},
			ExpiresAt: jwt.NewNumericDate(o.expires),
		},
	}
	signed, err := jwt.NewWithClaims(o.method, claims).SignedString([]byte(o.secret))
	require.NoError(t, err)
	return signed
}

func bearer(token string) http.Header {
	return http.Header{echo.HeaderAuthorization: []string{"Bearer " + token}}
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     func(t *testing.T) http.Header
		expectCode int
		errorCode  apperrors.ErrorCode
	}{
		{
			name:       "valid token",
			header:     func(t *testing.T) http.Header { return bearer(signToken(t, tokenOpts{roles: []string{"reader"}})) },
			expectCode: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     func(*testing.T) http.Header { return nil },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     func(*testing.T) http.Header { return http.Header{echo.HeaderAuthorization: []string{"Basic dXNlcjpwYXNz"}} },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
		{
			name:       "two segments",
			header:     func(*testing.T) http.Header { return bearer("abc.def") },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
		{
			name:       "non base64 segment",
			header:     func(*testing.T) http.Header { return bearer("abc.d$f.ghi") },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
		{
			name:       "wrong secret",
			header:     func(t *testing.T) http.Header { return bearer(signToken(t, tokenOpts{secret: "other"})) },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
		{
			name:       "wrong issuer",
			header:     func(t *testing.T) http.Header { return bearer(signToken(t, tokenOpts{issuer: "someone-else"})) },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
		{
			name:       "wrong audience",
			header:     func(t *testing.T) http.Header { return bearer(signToken(t, tokenOpts{audience: "other-api"})) },
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
		{
			name: "expired",
			header: func(t *testing.T) http.Header {
				return bearer(signToken(t, tokenOpts{expires: time.Now().Add(-time.Hour)}))
			},
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeTokenExpired,
		},
		{
			name: "non hmac algorithm",
			header: func(t *testing.T) http.Header {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				}).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return bearer(token + "sig")
			},
			expectCode: http.StatusUnauthorized,
			errorCode:  apperrors.ErrCodeInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthMiddleware(testAuthConfig(), logger.Discard())

			e := newTestEcho()
			e.GET("/", func(c echo.Context) error {
				ac, ok := GetAuthContext(c)
				require.True(t, ok)
				fromCtx, ok := AuthFromContext(c.Request().Context())
				require.True(t, ok)
				assert.Equal(t, ac, fromCtx)
				assert.Equal(t, "user-1", ac.Subject)
				return c.NoContent(http.StatusOK)
			}, auth.RequireAuth())

			rec := serve(e, http.MethodGet, "/", tt.header(t))
			assert.Equal(t, tt.expectCode, rec.Code)
			if tt.errorCode != "" {
				assert.Equal(t, string(tt.errorCode), decodeError(t, rec).Code)
			}
		})
	}
}

func TestAuthMiddleware_Require(t *testing.T) {
	tests := []struct {
		name       string
		roles      domain.RoleRequirement
		perms      domain.PermissionRequirement
		token      tokenOpts
		expectCode int
	}{
		{
			name:       "admin category",
			roles:      domain.RoleRequirement{Kind: domain.RequireAdmin},
			token:      tokenOpts{roles: []string{"admin"}},
			expectCode: http.StatusOK,
		},
		{
			name:       "admin category denied",
			roles:      domain.RoleRequirement{Kind: domain.RequireAdmin},
			token:      tokenOpts{roles: []string{"reader"}},
			expectCode: http.StatusForbidden,
		},
		{
			name:       "any role",
			roles:      domain.RoleRequirement{Kind: domain.RequireAny, Roles: []string{"a", "b"}},
			token:      tokenOpts{roles: []string{"b"}},
			expectCode: http.StatusOK,
		},
		{
			name:       "all roles missing one",
			roles:      domain.RoleRequirement{Kind: domain.RequireAll, Roles: []string{"a", "b"}},
			token:      tokenOpts{roles: []string{"a"}},
			expectCode: http.StatusForbidden,
		},
		{
			name:       "empty role list passes",
			roles:      domain.RoleRequirement{Kind: domain.RequireAll},
			token:      tokenOpts{},
			expectCode: http.StatusOK,
		},
		{
			name:       "scope permission",
			roles:      domain.RoleRequirement{Kind: domain.RequireNone},
			perms:      domain.PermissionRequirement{Kind: domain.RequireAll, Permissions: []string{"pets.read", "pets.write"}},
			token:      tokenOpts{scope: "pets.read pets.write"},
			expectCode: http.StatusOK,
		},
		{
			name:       "scope permission denied",
			roles:      domain.RoleRequirement{Kind: domain.RequireNone},
			perms:      domain.PermissionRequirement{Kind: domain.RequireAny, Permissions: []string{"pets.write"}},
			token:      tokenOpts{scope: "pets.read"},
			expectCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthMiddleware(testAuthConfig(), logger.Discard())

			e := newTestEcho()
			e.GET("/", ok, auth.Require(tt.roles, tt.perms))

			rec := serve(e, http.MethodGet, "/", bearer(signToken(t, tt.token)))
			assert.Equal(t, tt.expectCode, rec.Code)
			if tt.expectCode == http.StatusForbidden {
				assert.Equal(t, string(apperrors.ErrCodeForbidden), decodeError(t, rec).Code)
			}
		})
	}
}

func TestAuthMiddleware_RequireAny(t *testing.T) {
	auth := NewAuthMiddleware(testAuthConfig(), logger.Discard())

	e := newTestEcho()
	e.GET("/", ok, auth.RequireAny(domain.RequireReadOnly, domain.RequireFullAccess, domain.RequireAdmin))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", bearer(signToken(t, tokenOpts{roles: []string{"writer"}}))).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/", bearer(signToken(t, tokenOpts{roles: []string{"guest"}}))).Code)
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	auth := NewAuthMiddleware(config.AuthConfig{Enabled: false}, logger.Discard())

	e := newTestEcho()
	e.GET("/", func(c echo.Context) error {
		ac, ok := GetAuthContext(c)
		require.True(t, ok)
		assert.True(t, ac.Anonymous)
		return c.NoContent(http.StatusOK)
	}, auth.Require(domain.RoleRequirement{Kind: domain.RequireAdmin}, domain.PermissionRequirement{}))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", nil).Code)
}

func TestWellFormed(t *testing.T) {
	assert.True(t, wellFormed("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln"))
	assert.False(t, wellFormed("a..c"))
	assert.False(t, wellFormed("a.b.c.d"))
	assert.False(t, wellFormed("a+b.c.d"))
}
