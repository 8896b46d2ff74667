package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/joshua-takyi/rendez/internal/services"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	Profile *models.Profile     `json:"profile,omitempty"`
	Session *models.AuthSession `json:"session,omitempty"`
}

func Signup(as *services.AccountService, cookies AuthCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.SignupInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		profile, session, err := as.Signup(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		cookies.Set(c, session)
		c.JSON(http.StatusCreated, models.SuccessResponse(sessionResponse{Profile: profile, Session: session}, "account created"))
	}
}

func Login(as *services.AccountService, cookies AuthCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		session, err := as.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidInput) {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid email or password"))
			return
		}

		cookies.Set(c, session)
		c.JSON(http.StatusOK, models.SuccessResponse(sessionResponse{Session: session}, "logged in"))
	}
}

// Refresh accepts the refresh token from the body or, failing that, the
// refresh_token cookie.
func Refresh(as *services.AccountService, cookies AuthCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		if req.RefreshToken == "" {
			req.RefreshToken, _ = c.Cookie(RefreshTokenCookie)
		}

		session, err := as.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, models.ErrInvalidInput) {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("token refresh failed"))
			return
		}

		cookies.Set(c, session)
		c.JSON(http.StatusOK, models.SuccessResponse(sessionResponse{Session: session}, "token refreshed"))
	}
}

func Logout(cookies AuthCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookies.Clear(c)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "logged out successfully"))
	}
}
