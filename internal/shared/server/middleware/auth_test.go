package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"resume-builder/internal/shared/auth"
)

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.OPTIONS("/api/v1/resumes", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/resumes", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthIdentitySources(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	token, err := auth.SignJWT(auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-jwt"},
		Username:         "alice",
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	tests := []struct {
		name       string
		env        string
		header     string
		value      string
		wantStatus int
		wantUser   string
	}{
		{name: "bearer token", env: "production", header: "Authorization", value: "Bearer " + token, wantStatus: http.StatusOK, wantUser: "user-jwt"},
		{name: "malformed bearer", env: "dev", header: "Authorization", value: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "bad signature", env: "dev", header: "Authorization", value: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized},
		{name: "dev header", env: "dev", header: "X-User-Id", value: "user-dev", wantStatus: http.StatusOK, wantUser: "user-dev"},
		{name: "dev header ignored in production", env: "production", header: "X-User-Id", value: "user-dev", wantStatus: http.StatusUnauthorized},
		{name: "missing identity", env: "dev", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(Auth(tt.env))
			var gotUser string
			router.GET("/who", func(c *gin.Context) {
				gotUser = UserIDFromContext(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.Code)
			}
			if gotUser != tt.wantUser {
				t.Fatalf("expected user %q, got %q", tt.wantUser, gotUser)
			}
		})
	}
}
