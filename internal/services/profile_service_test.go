package services

import (
	"context"
	"testing"
	"time"

	"github.com/joshua-takyi/rendez/internal/helpers"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileFixture(t *testing.T) (*ProfileService, *models.MemoryRepo, *recordingNotifier) {
	t.Helper()
	repo := models.NewMemoryRepo()
	notifier := newRecordingNotifier()
	addProfile(t, repo, "alice", models.GenderFemale, models.GenderMale, 2.35, 48.85)
	addProfile(t, repo, "bob", models.GenderMale, models.GenderFemale, 2.36, 48.86)
	return NewProfileService(repo, helpers.NewPhotoUploader(nil), notifier, discardLogger()), repo, notifier
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newProfileFixture(t)
	ctx := context.Background()

	radius := 25.0
	p, err := svc.UpdateProfile(ctx, "alice", models.ProfilePatch{
		Bio:               strPtr("  hello  "),
		DiscoveryRadiusKm: &radius,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Bio)
	assert.Equal(t, 25.0, p.RadiusKm())

	_, err = svc.UpdateProfile(ctx, "alice", models.ProfilePatch{Email: strPtr("bob@example.com")})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	_, err = svc.UpdateProfile(ctx, "alice", models.ProfilePatch{Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.UpdateProfile(ctx, "alice", models.ProfilePatch{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	future := time.Now().Add(48 * time.Hour)
	_, err = svc.UpdateProfile(ctx, "alice", models.ProfilePatch{BirthDate: &future})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.UpdateProfile(ctx, "ghost", models.ProfilePatch{Bio: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateLocation(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	p, err := svc.UpdateLocation(context.Background(), "alice", 45.764, 4.8357)
	require.NoError(t, err)
	require.NotNil(t, p.Location)
	assert.Equal(t, 45.764, p.Location.Latitude())
	assert.Equal(t, 4.8357, p.Location.Longitude())
	assert.NotNil(t, p.LocationUpdatedAt)

	_, err = svc.UpdateLocation(context.Background(), "alice", 91, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestPhotos(t *testing.T) {
	svc, _, _ := newProfileFixture(t)
	ctx := context.Background()

	p, err := svc.AddPhoto(ctx, "alice", "https://cdn.example.com/second.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/alice.jpg", p.PrimaryPhoto())
	assert.Len(t, p.Photos, 2)

	_, err = svc.AddPhoto(ctx, "alice", "not a url")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	p, err = svc.RemovePhoto(ctx, "alice", "https://cdn.example.com/alice.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/second.jpg"}, p.Photos)

	for i := len(p.Photos); i < MaxPhotos; i++ {
		_, err = svc.AddPhoto(ctx, "alice", "https://cdn.example.com/more.jpg")
		require.NoError(t, err)
	}
	_, err = svc.AddPhoto(ctx, "alice", "https://cdn.example.com/one-too-many.jpg")
	assert.ErrorIs(t, err, models.ErrInvalidOperation)
}

func TestListLiked(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	ctx := context.Background()

	_, err := repo.AddLike(ctx, "alice", "bob")
	require.NoError(t, err)

	liked, err := svc.ListLiked(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, "bob", liked[0].ID)
}

func TestSetPresencePublishes(t *testing.T) {
	svc, repo, notifier := newProfileFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SetPresence(ctx, "alice", true))
	p, _ := repo.GetProfile(ctx, "alice")
	assert.True(t, p.IsOnline)
	require.NotNil(t, p.LastActive)

	require.NoError(t, svc.SetPresence(ctx, "alice", false))
	require.Len(t, notifier.presence, 2)
	assert.False(t, notifier.presence[1].IsOnline)

	assert.ErrorIs(t, svc.SetPresence(ctx, "ghost", true), models.ErrNotFound)
}
