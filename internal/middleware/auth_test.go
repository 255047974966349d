package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/config"
	"farmbooks/internal/domain"
	"farmbooks/internal/middleware"
)

var jwtCfg = &config.JWTConfig{Secret: "test-secret", Issuer: "farmbooks"}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(sub uuid.UUID, role domain.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub.String(),
		"iss":  "farmbooks",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"name": "Anna Kowalska",
		"role": string(role),
	}
}

func protectedRouter(roles ...domain.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{middleware.AuthMiddleware(jwtCfg)}
	if len(roles) > 0 {
		handlers = append(handlers, middleware.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		userID, err := middleware.GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": middleware.GetRole(c)})
	})
	r.GET("/protected", handlers...)
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	sub := uuid.New()
	token := signToken(t, validClaims(sub, domain.RoleBookkeeper), jwtCfg.Secret)

	w := doRequest(protectedRouter(), token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sub.String())
	assert.Contains(t, w.Body.String(), "bookkeeper")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	w := doRequest(protectedRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token := signToken(t, validClaims(uuid.New(), domain.RoleAdmin), "other-secret")
	w := doRequest(protectedRouter(), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsWrongIssuer(t *testing.T) {
	claims := validClaims(uuid.New(), domain.RoleAdmin)
	claims["iss"] = "someone-else"
	w := doRequest(protectedRouter(), signToken(t, claims, jwtCfg.Secret))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	claims := validClaims(uuid.New(), domain.RoleAdmin)
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	w := doRequest(protectedRouter(), signToken(t, claims, jwtCfg.Secret))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsTokenWithoutExpiry(t *testing.T) {
	claims := validClaims(uuid.New(), domain.RoleAdmin)
	delete(claims, "exp")
	w := doRequest(protectedRouter(), signToken(t, claims, jwtCfg.Secret))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMalformedSubject(t *testing.T) {
	claims := validClaims(uuid.New(), domain.RoleAdmin)
	claims["sub"] = "not-a-uuid"
	w := doRequest(protectedRouter(), signToken(t, claims, jwtCfg.Secret))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	token := signToken(t, validClaims(uuid.New(), domain.RoleAdmin), jwtCfg.Secret)
	w := doRequest(protectedRouter(domain.RoleAdmin), token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	token := signToken(t, validClaims(uuid.New(), domain.RoleBookkeeper), jwtCfg.Secret)
	w := doRequest(protectedRouter(domain.RoleAdmin), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
