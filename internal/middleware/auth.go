package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joshua-takyi/rendez/internal/handlers"
	"github.com/joshua-takyi/rendez/internal/helpers"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/joshua-takyi/rendez/internal/services"
)

// tokenFromRequest looks at the Authorization header, then the access_token
// cookie. Browsers cannot set headers on websocket handshakes, so upgrade
// requests may also pass ?access_token=.
func tokenFromRequest(c *gin.Context) (string, bool) {
	if token := helpers.BearerToken(c.GetHeader("Authorization")); token != "" {
		return token, false
	}
	if token, err := c.Cookie(handlers.AccessTokenCookie); err == nil && token != "" {
		return token, true
	}
	if websocket.IsWebSocketUpgrade(c.Request) {
		return c.Query("access_token"), false
	}
	return "", false
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ApiResponse{
		Success: false,
		Message: "Unauthorized access",
		Error:   reason,
	})
}

// AuthMiddleware resolves the request to a profile id. When a cookie session
// has expired and a refresh_token cookie is present, the session is refreshed
// transparently and new cookies are issued.
func AuthMiddleware(validator *helpers.TokenValidator, accounts *services.AccountService, cookies handlers.AuthCookies, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := tokenFromRequest(c)
		if token == "" {
			unauthorized(c, "access token not found")
			return
		}

		claims, err := validator.Validate(token)
		if err != nil && fromCookie && accounts != nil {
			refreshToken, refreshErr := c.Cookie(handlers.RefreshTokenCookie)
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, err.Error())
				return
			}

			session, refreshErr := accounts.Refresh(c.Request.Context(), refreshToken)
			if refreshErr != nil {
				logger.Error("Token refresh failed", "error", refreshErr)
				unauthorized(c, "token expired and refresh failed")
				return
			}
			logger.Info("Token refreshed successfully",
				"user_id", session.UserID,
				"expires_in", session.ExpiresIn,
			)
			cookies.Set(c, session)
			claims, err = validator.Validate(session.AccessToken)
		}
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		c.Set("user", claims)
		c.Set("user_id", claims.UserID())
		c.Next()
	}
}
