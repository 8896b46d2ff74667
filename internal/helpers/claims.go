package helpers

import "github.com/golang-jwt/jwt/v5"

// AuthClaims are the claims Supabase puts in its access tokens. The profile
// id is the token subject.
type AuthClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

func (c *AuthClaims) UserID() string {
	return c.Subject
}

func (c *AuthClaims) IsOwner(userID string) bool {
	return c.Subject != "" && c.Subject == userID
}
