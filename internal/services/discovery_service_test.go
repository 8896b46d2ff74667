package services

import (
	"context"
	"testing"

	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateIDs(c []models.CandidateProfile) []string {
	ids := make([]string, 0, len(c))
	for _, p := range c {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFindCandidatesNearbyScenario(t *testing.T) {
	repo := models.NewMemoryRepo()
	addProfile(t, repo, "req", models.GenderMale, models.GenderFemale, 2.35, 48.85, withRadius(10))
	addProfile(t, repo, "cand", models.GenderFemale, models.GenderMale, 2.36, 48.86)

	svc := NewDiscoveryService(repo, 20)
	got, err := svc.FindCandidates(context.Background(), "req", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cand", got[0].ID)
	assert.InDelta(t, 1.33, got[0].DistanceKm, 0.05)
}

func TestFindCandidatesFilters(t *testing.T) {
	repo := models.NewMemoryRepo()
	ctx := context.Background()
	addProfile(t, repo, "req", models.GenderMale, models.GenderFemale, 2.35, 48.85, withRadius(10))

	addProfile(t, repo, "ok", models.GenderFemale, models.GenderMale, 2.36, 48.86)
	addProfile(t, repo, "wrong-gender", models.GenderMale, models.GenderFemale, 2.36, 48.86)
	addProfile(t, repo, "one-way", models.GenderFemale, models.GenderFemale, 2.36, 48.86)
	addProfile(t, repo, "no-location", models.GenderFemale, models.GenderMale, 0, 0, withoutLocation())
	addProfile(t, repo, "too-far", models.GenderFemale, models.GenderMale, 2.35, 49.05) // ~22 km north
	addProfile(t, repo, "liked", models.GenderFemale, models.GenderMale, 2.351, 48.851)
	_, err := repo.AddLike(ctx, "req", "liked")
	require.NoError(t, err)

	svc := NewDiscoveryService(repo, 20)
	got, err := svc.FindCandidates(ctx, "req", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, candidateIDs(got))

	for _, c := range got {
		assert.LessOrEqual(t, c.DistanceKm, 10.0)
	}
}

func TestFindCandidatesOrdering(t *testing.T) {
	repo := models.NewMemoryRepo()
	addProfile(t, repo, "req", models.GenderFemale, models.GenderMale, 2.35, 48.85)
	addProfile(t, repo, "z-tie", models.GenderMale, models.GenderFemale, 2.36, 48.86)
	addProfile(t, repo, "a-tie", models.GenderMale, models.GenderFemale, 2.36, 48.86)
	addProfile(t, repo, "closest", models.GenderMale, models.GenderFemale, 2.351, 48.851)
	addProfile(t, repo, "farther", models.GenderMale, models.GenderFemale, 2.45, 48.9)

	svc := NewDiscoveryService(repo, 20)
	got, err := svc.FindCandidates(context.Background(), "req", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"closest", "a-tie", "z-tie", "farther"}, candidateIDs(got))

	page, err := svc.FindCandidates(context.Background(), "req", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-tie", "z-tie"}, candidateIDs(page))
}

func TestFindCandidatesRequiresLocation(t *testing.T) {
	repo := models.NewMemoryRepo()
	addProfile(t, repo, "req", models.GenderMale, models.GenderFemale, 0, 0, withoutLocation())
	addProfile(t, repo, "cand", models.GenderFemale, models.GenderMale, 2.36, 48.86)

	got, err := NewDiscoveryService(repo, 20).FindCandidates(context.Background(), "req", 0, 0)
	assert.ErrorIs(t, err, models.ErrPrecondition)
	assert.Nil(t, got)
}

func TestFindCandidatesUnknownRequester(t *testing.T) {
	_, err := NewDiscoveryService(models.NewMemoryRepo(), 20).FindCandidates(context.Background(), "ghost", 0, 0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFindCandidatesEmptyIsNotAnError(t *testing.T) {
	repo := models.NewMemoryRepo()
	addProfile(t, repo, "req", models.GenderMale, models.GenderFemale, 2.35, 48.85)

	got, err := NewDiscoveryService(repo, 20).FindCandidates(context.Background(), "req", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFindCandidatesHidesContactDetails(t *testing.T) {
	repo := models.NewMemoryRepo()
	addProfile(t, repo, "req", models.GenderMale, models.GenderFemale, 2.35, 48.85)
	addProfile(t, repo, "cand", models.GenderFemale, models.GenderMale, 2.36, 48.86)

	got, err := NewDiscoveryService(repo, 20).FindCandidates(context.Background(), "req", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://cdn.example.com/cand.jpg", got[0].PrimaryPhoto)
	// CandidateProfile has no email or phone fields at all; the JSON shape is
	// covered by the handler tests.
}
