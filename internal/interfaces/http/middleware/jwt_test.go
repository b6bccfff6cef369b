package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadqual/backend/internal/infrastructure/auth"
	"github.com/leadqual/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-with-enough-length-32",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "leadqual-test",
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, organizationID, userID uuid.UUID) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		OrganizationID: organizationID,
		UserID:         userID,
		Email:          "user@example.com",
	})
	require.NoError(t, err)
	return token
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService(t)
	organizationID := uuid.New()
	userID := uuid.New()

	router := gin.New()
	router.Use(JWTAuth(svc))

	var capturedOrgID, capturedUserID string
	router.GET("/test", func(c *gin.Context) {
		capturedOrgID = GetJWTOrganizationID(c)
		capturedUserID = GetJWTUserID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, svc, organizationID, userID))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, organizationID.String(), capturedOrgID)
	assert.Equal(t, userID.String(), capturedUserID)
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestJWTService(t)

	tests := []struct {
		name         string
		header       string
		expectedCode string
	}{
		{
			name:         "missing header",
			header:       "",
			expectedCode: "ERR_AUTH_MISSING_TOKEN",
		},
		{
			name:         "not a bearer token",
			header:       "Basic dXNlcjpwYXNz",
			expectedCode: "ERR_AUTH_MISSING_TOKEN",
		},
		{
			name:         "garbage token",
			header:       BearerPrefix + "not.a.token",
			expectedCode: "ERR_AUTH_INVALID_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuth(svc))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedCode)
		})
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	expired := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-with-enough-length-32",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "leadqual-test",
	})

	router := gin.New()
	router.Use(JWTAuth(expired))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, expired, uuid.New(), uuid.New()))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_AUTH_TOKEN_EXPIRED")
}

func TestJWTAuth_SkipPaths(t *testing.T) {
	svc := newTestJWTService(t)

	router := gin.New()
	router.Use(JWTAuth(svc))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
