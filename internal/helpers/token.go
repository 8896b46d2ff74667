package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenValidator verifies Supabase access tokens. HS256 tokens are checked
// against the project JWT secret; asymmetric tokens against the project JWKS,
// which is fetched once and refreshed in the background.
type TokenValidator struct {
	secret []byte
	jwks   *keyfunc.JWKS
}

func NewTokenValidator(ctx context.Context, secret, jwksURL string, logger *slog.Logger) (*TokenValidator, error) {
	if secret == "" && jwksURL == "" {
		return nil, fmt.Errorf("either a jwt secret or a jwks url is required")
	}
	v := &TokenValidator{secret: []byte(secret)}
	if jwksURL == "" {
		return v, nil
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error loading jwks: %v", err)
	}
	v.jwks = jwks
	return v, nil
}

func (v *TokenValidator) keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, fmt.Errorf("hmac tokens are not accepted")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return v.jwks.Keyfunc(token)
}

func (v *TokenValidator) Validate(tokenStr string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
