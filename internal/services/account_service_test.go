package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	signups int
	nextID  string
}

func (f *fakeAccounts) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.signups++
	return &models.AuthSession{UserID: f.nextID, AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (f *fakeAccounts) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if password != "Str0ng!pass" {
		return nil, errors.New("invalid login credentials")
	}
	return &models.AuthSession{UserID: f.nextID, AccessToken: "access"}, nil
}

func (f *fakeAccounts) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	return &models.AuthSession{UserID: f.nextID, AccessToken: "fresh", RefreshToken: refreshToken}, nil
}

func validSignup() SignupInput {
	return SignupInput{
		FirstName:    "Ana",
		Email:        "Ana@Example.com",
		PhoneNumber:  "+33612345678",
		Password:     "Str0ng!pass",
		Gender:       models.GenderFemale,
		InterestedIn: models.GenderMale,
	}
}

func TestSignupCreatesProfile(t *testing.T) {
	repo := models.NewMemoryRepo()
	accounts := &fakeAccounts{nextID: "4b0d7c5e-0000-4000-8000-000000000001"}
	svc := NewAccountService(accounts, repo, discardLogger())

	profile, session, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	assert.Equal(t, accounts.nextID, profile.ID)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, float64(models.DefaultRadiusKm), profile.RadiusKm())
	assert.Equal(t, "access", session.AccessToken)

	stored, err := repo.GetProfile(context.Background(), accounts.nextID)
	require.NoError(t, err)
	assert.Empty(t, stored.Liked)
}

func TestSignupRejectsDuplicatesBeforeCallingProvider(t *testing.T) {
	repo := models.NewMemoryRepo()
	accounts := &fakeAccounts{nextID: "first"}
	svc := NewAccountService(accounts, repo, discardLogger())

	_, _, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	accounts.nextID = "second"
	dup := validSignup()
	dup.Email = "other@example.com"
	_, _, err = svc.Signup(context.Background(), dup)
	assert.ErrorIs(t, err, models.ErrDuplicate)
	assert.Equal(t, 1, accounts.signups)
}

func TestSignupValidation(t *testing.T) {
	svc := NewAccountService(&fakeAccounts{nextID: "x"}, models.NewMemoryRepo(), discardLogger())

	weak := validSignup()
	weak.Password = "password"
	_, _, err := svc.Signup(context.Background(), weak)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	badGender := validSignup()
	badGender.Gender = "other"
	_, _, err = svc.Signup(context.Background(), badGender)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestLoginAndRefresh(t *testing.T) {
	svc := NewAccountService(&fakeAccounts{nextID: "u1"}, models.NewMemoryRepo(), discardLogger())

	_, err := svc.Login(context.Background(), "bad", "x")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	session, err := svc.Login(context.Background(), "ana@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)

	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	session, err = svc.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", session.AccessToken)
}
