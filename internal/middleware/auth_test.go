package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/rendez/internal/handlers"
	"github.com/joshua-takyi/rendez/internal/helpers"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/joshua-takyi/rendez/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-test-secret-test-secret-42"

func sign(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, helpers.AuthClaims{
		Role: "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type refreshingAccounts struct {
	token string
}

func (r *refreshingAccounts) SignUp(context.Context, string, string) (*models.AuthSession, error) {
	return nil, errors.New("not used")
}

func (r *refreshingAccounts) SignIn(context.Context, string, string) (*models.AuthSession, error) {
	return nil, errors.New("not used")
}

func (r *refreshingAccounts) RefreshToken(_ context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken != "good-refresh" {
		return nil, errors.New("invalid refresh token")
	}
	return &models.AuthSession{UserID: "u1", AccessToken: r.token, RefreshToken: "next-refresh", ExpiresIn: 3600}, nil
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator, err := helpers.NewTokenValidator(context.Background(), secret, "", logger)
	require.NoError(t, err)
	accounts := services.NewAccountService(&refreshingAccounts{token: sign(t, "u1", time.Now().Add(time.Hour))}, models.NewMemoryRepo(), logger)

	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", AuthMiddleware(validator, accounts, handlers.AuthCookies{}, logger), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	return r
}

func TestAuthMiddlewareBearer(t *testing.T) {
	r := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, "u1", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthMiddlewareRejects(t *testing.T) {
	r := newAuthRouter(t)

	cases := map[string]func(req *http.Request){
		"no token":      func(req *http.Request) {},
		"garbage token": func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") },
		"expired bearer": func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+sign(t, "u1", time.Now().Add(-time.Minute)))
		},
		"expired cookie without refresh": func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "access_token", Value: sign(t, "u1", time.Now().Add(-time.Minute))})
		},
		"expired cookie with bad refresh": func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "access_token", Value: sign(t, "u1", time.Now().Add(-time.Minute))})
			req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stale"})
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddlewareRefreshesCookieSession(t *testing.T) {
	r := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sign(t, "u1", time.Now().Add(-time.Minute))})
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "good-refresh"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	cookies := strings.Join(w.Header().Values("Set-Cookie"), ";")
	assert.Contains(t, cookies, "access_token=")
	assert.Contains(t, cookies, "refresh_token=next-refresh")
}

func TestErrorHandlerAnswersUnwrittenErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("database unreachable"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "database unreachable")
}
