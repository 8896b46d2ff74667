package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// AuthSession is the token pair handed back by the identity provider.
type AuthSession struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// AccountRepo owns credentials. Profiles never store passwords; the account
// id returned here becomes the profile id.
type AccountRepo interface {
	SignUp(ctx context.Context, email, password string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error)
}

func (su *SupabaseRepo) SignUp(ctx context.Context, email, password string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "already registered") || strings.Contains(errMsg, "already exists") {
			return nil, fmt.Errorf("email: %w", ErrDuplicate)
		}
		if strings.Contains(errMsg, "password") {
			return nil, fmt.Errorf("password rejected by identity provider")
		}
		return nil, fmt.Errorf("failed to create account: %v", err)
	}

	// With autoconfirm on, the user only comes back inside the session.
	userID := res.User.ID
	if userID == uuid.Nil {
		userID = res.Session.User.ID
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("identity provider returned no user id")
	}

	session := &AuthSession{UserID: userID.String()}
	if res.Session.AccessToken != "" {
		session.AccessToken = res.Session.AccessToken
		session.RefreshToken = res.Session.RefreshToken
		session.ExpiresIn = res.Session.ExpiresIn
	}
	return session, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %v", err)
	}
	return sessionFromToken(resp), nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %v", err)
	}
	return sessionFromToken(resp), nil
}

func sessionFromToken(resp *types.TokenResponse) *AuthSession {
	return &AuthSession{
		UserID:       resp.User.ID.String(),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}
}
