package services

import "time"

const (
	EventMatch    = "match"
	EventUnmatch  = "unmatch"
	EventPresence = "presence"
	EventMessage  = "message"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type PresenceUpdate struct {
	UserID     string    `json:"user_id"`
	IsOnline   bool      `json:"is_online"`
	LastActive time.Time `json:"last_active"`
}

// Notifier pushes events to live connections. Delivery is best effort: the
// services never roll back state because a push failed.
type Notifier interface {
	PublishPresence(userID string, online bool, at time.Time)
	DeliverToUser(userID string, event Event) error
}

type NopNotifier struct{}

func (NopNotifier) PublishPresence(string, bool, time.Time) {}

func (NopNotifier) DeliverToUser(string, Event) error { return nil }
