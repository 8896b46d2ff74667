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

const MaxPhotos = 9

type ProfileService struct {
	profiles models.ProfileRepo
	photos   *helpers.PhotoUploader
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewProfileService(profiles models.ProfileRepo, photos *helpers.PhotoUploader, notifier Notifier, logger *slog.Logger) *ProfileService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ProfileService{
		profiles: profiles,
		photos:   photos,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (ps *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return ps.profiles.GetProfile(ctx, id)
}

func (ps *ProfileService) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	if err := models.Validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if patch.BirthDate != nil && patch.BirthDate.After(ps.now()) {
		return nil, fmt.Errorf("%w: birth date is in the future", models.ErrInvalidInput)
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}

	email, _ := fields["email"].(string)
	phone, _ := fields["phone_number"].(string)
	if email != "" || phone != "" {
		taken, err := ps.profiles.FindByContact(ctx, email, phone, id)
		if err == nil && taken != nil {
			return nil, fmt.Errorf("email or phone number: %w", models.ErrDuplicate)
		}
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	return ps.profiles.UpdateProfile(ctx, id, fields)
}

func (ps *ProfileService) UpdateLocation(ctx context.Context, id string, lat, lng float64) (*models.Profile, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", models.ErrInvalidInput)
	}
	return ps.profiles.UpdateLocation(ctx, id, models.NewGeoPoint(lng, lat), ps.now())
}

func (ps *ProfileService) AddPhoto(ctx context.Context, id, source string) (*models.Profile, error) {
	profile, err := ps.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(profile.Photos) >= MaxPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", models.ErrInvalidOperation, MaxPhotos)
	}

	url, err := ps.photos.Upload(ctx, id, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return ps.profiles.AddPhoto(ctx, id, url)
}

func (ps *ProfileService) RemovePhoto(ctx context.Context, id, url string) (*models.Profile, error) {
	profile, err := ps.profiles.RemovePhoto(ctx, id, url)
	if err != nil {
		return nil, err
	}
	if err := ps.photos.Delete(ctx, url); err != nil {
		ps.logger.Warn("photo removed from profile but not from storage", "user_id", id, "error", err)
	}
	return profile, nil
}

// ListLiked returns the public view of every profile the user has liked.
func (ps *ProfileService) ListLiked(ctx context.Context, id string) ([]models.PublicProfile, error) {
	profile, err := ps.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	liked, err := ps.profiles.GetProfiles(ctx, profile.Liked)
	if err != nil {
		return nil, err
	}

	now := ps.now()
	out := make([]models.PublicProfile, 0, len(liked))
	for _, p := range liked {
		out = append(out, p.Public(now))
	}
	return out, nil
}

// SetPresence records the online flag and tells connected clients about it.
func (ps *ProfileService) SetPresence(ctx context.Context, id string, online bool) error {
	at := ps.now()
	if err := ps.profiles.SetPresence(ctx, id, online, at); err != nil {
		return err
	}
	ps.notifier.PublishPresence(id, online, at)
	return nil
}
