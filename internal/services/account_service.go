package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/rendez/internal/helpers"
	"github.com/joshua-takyi/rendez/internal/models"
)

type SignupInput struct {
	FirstName    string        `json:"first_name" binding:"required" validate:"required,min=1,max=60"`
	Email        string        `json:"email" binding:"required" validate:"required,email"`
	PhoneNumber  string        `json:"phone_number" binding:"required" validate:"required,min=6,max=20"`
	Password     string        `json:"password" binding:"required" validate:"required,min=8"`
	Gender       models.Gender `json:"gender" validate:"omitempty,oneof=male female"`
	InterestedIn models.Gender `json:"interested_in" validate:"omitempty,oneof=male female"`
}

type AccountService struct {
	accounts models.AccountRepo
	profiles models.ProfileRepo
	logger   *slog.Logger
}

func NewAccountService(accounts models.AccountRepo, profiles models.ProfileRepo, logger *slog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		profiles: profiles,
		logger:   logger,
	}
}

// Signup registers the credential with the identity provider and creates the
// profile under the returned account id.
func (as *AccountService) Signup(ctx context.Context, in SignupInput) (*models.Profile, *models.AuthSession, error) {
	if err := models.Validate.Struct(in); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if !helpers.IsPasswordStrong(in.Password) {
		return nil, nil, fmt.Errorf("%w: password is not strong enough", models.ErrInvalidInput)
	}

	profile := &models.Profile{
		FirstName:    in.FirstName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		Gender:       in.Gender,
		InterestedIn: in.InterestedIn,
	}
	profile.Normalize()

	existing, err := as.profiles.FindByContact(ctx, profile.Email, profile.PhoneNumber, "")
	if err == nil && existing != nil {
		return nil, nil, fmt.Errorf("email or phone number: %w", models.ErrDuplicate)
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}

	session, err := as.accounts.SignUp(ctx, profile.Email, in.Password)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	profile.ID = session.UserID
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if err := as.profiles.CreateProfile(ctx, profile); err != nil {
		as.logger.Error("profile creation failed after account signup",
			"user_id", session.UserID,
			"error", err,
		)
		return nil, nil, err
	}

	as.logger.Info("profile created", "user_id", profile.ID)
	return profile, session, nil
}

func (as *AccountService) Login(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, fmt.Errorf("%w: password is required", models.ErrInvalidInput)
	}
	return as.accounts.SignIn(ctx, email, password)
}

func (as *AccountService) Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", models.ErrInvalidInput)
	}
	return as.accounts.RefreshToken(ctx, refreshToken)
}
