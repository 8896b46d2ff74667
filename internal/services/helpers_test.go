package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   map[string][]Event
	presence []PresenceUpdate
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(map[string][]Event)}
}

func (n *recordingNotifier) PublishPresence(userID string, online bool, at time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presence = append(n.presence, PresenceUpdate{UserID: userID, IsOnline: online, LastActive: at})
}

func (n *recordingNotifier) DeliverToUser(userID string, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[userID] = append(n.events[userID], event)
	return nil
}

func (n *recordingNotifier) eventsFor(userID string, eventType string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, e := range n.events[userID] {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type profileOpt func(p *models.Profile)

func withRadius(km float64) profileOpt {
	return func(p *models.Profile) { p.DiscoveryRadiusKm = km }
}

func withoutLocation() profileOpt {
	return func(p *models.Profile) { p.Location = nil }
}

func addProfile(t *testing.T, repo models.ProfileRepo, id string, gender, interestedIn models.Gender, lng, lat float64, opts ...profileOpt) *models.Profile {
	t.Helper()
	loc := models.NewGeoPoint(lng, lat)
	p := &models.Profile{
		ID:           id,
		FirstName:    id,
		Email:        id + "@example.com",
		PhoneNumber:  "+3360000" + id,
		Gender:       gender,
		InterestedIn: interestedIn,
		Location:     &loc,
		Photos:       []string{"https://cdn.example.com/" + id + ".jpg"},
	}
	p.Normalize()
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, repo.CreateProfile(context.Background(), p))
	return p
}
