package services

import (
	"context"
	"fmt"
	"time"

	"github.com/joshua-takyi/rendez/internal/geo"
	"github.com/joshua-takyi/rendez/internal/models"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type DiscoveryService struct {
	profiles     models.ProfileRepo
	defaultLimit int
	now          func() time.Time
}

func NewDiscoveryService(profiles models.ProfileRepo, defaultLimit int) *DiscoveryService {
	if defaultLimit <= 0 || defaultLimit > MaxPageLimit {
		defaultLimit = DefaultPageLimit
	}
	return &DiscoveryService{
		profiles:     profiles,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// PageLimit clamps a requested page size to the configured bounds.
func (ds *DiscoveryService) PageLimit(requested int) int {
	if requested <= 0 {
		return ds.defaultLimit
	}
	if requested > MaxPageLimit {
		return MaxPageLimit
	}
	return requested
}

// FindCandidates lists profiles the requester can swipe on: within the
// requester's radius, mutually compatible by gender preference and not
// already liked. Results are nearest first with the profile id breaking ties,
// so paging is stable while the underlying state is unchanged.
func (ds *DiscoveryService) FindCandidates(ctx context.Context, requesterID string, offset, limit int) ([]models.CandidateProfile, error) {
	requester, err := ds.profiles.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.Location == nil || len(requester.Location.Coordinates) < 2 {
		return nil, fmt.Errorf("location required: %w", models.ErrPrecondition)
	}
	if !requester.HasPreferences() {
		return nil, fmt.Errorf("gender and interested_in required: %w", models.ErrPrecondition)
	}

	if offset < 0 {
		offset = 0
	}
	limit = ds.PageLimit(limit)

	exclude := append([]string{requester.ID}, requester.Liked...)
	nearby, err := ds.profiles.FindNearby(ctx, models.NearbyQuery{
		Origin:       *requester.Location,
		RadiusMeters: geo.KmToMeters(requester.RadiusKm()),
		Gender:       requester.InterestedIn,
		InterestedIn: requester.Gender,
		Exclude:      exclude,
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}

	now := ds.now()
	candidates := make([]models.CandidateProfile, 0, len(nearby))
	for _, n := range nearby {
		candidates = append(candidates, models.CandidateProfile{
			PublicProfile: n.Public(now),
			DistanceKm:    geo.RoundKm(geo.MetersToKm(n.DistanceMeters)),
		})
	}
	return candidates, nil
}
