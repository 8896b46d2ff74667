package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rendez/internal/models"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	refreshTokenMaxAge = 3600 * 24 * 30
)

// currentUserID returns the profile id the auth middleware resolved.
func currentUserID(c *gin.Context) (string, bool) {
	id := c.GetString("user_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return "", false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrPrecondition),
		errors.Is(err, models.ErrInvalidOperation),
		errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes client errors directly. Anything else is attached to the
// context so ErrorHandler logs it and answers with a generic 500.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		return
	}
	c.JSON(status, models.ErrorResponse(err.Error()))
}

// AuthCookies issues the session cookies. Secure is set in production so
// browsers only send them over https.
type AuthCookies struct {
	Secure bool
}

func (ac AuthCookies) Set(c *gin.Context, session *models.AuthSession) {
	if session == nil || session.AccessToken == "" {
		return
	}
	c.SetCookie(AccessTokenCookie, session.AccessToken, session.ExpiresIn, "/", "", ac.Secure, true)
	if session.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, session.RefreshToken, refreshTokenMaxAge, "/", "", ac.Secure, true)
	}
}

func (ac AuthCookies) Clear(c *gin.Context) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", ac.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", ac.Secure, true)
}
