package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MatchStatus string

const (
	MatchActive   MatchStatus = "active"
	MatchInactive MatchStatus = "inactive"
)

type Match struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Users           []string           `bson:"users" json:"participants"`
	PairKey         string             `bson:"pair_key" json:"-"`
	Status          MatchStatus        `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	LastInteraction time.Time          `bson:"last_interaction" json:"last_interaction"`
	EndedAt         *time.Time         `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	EndedBy         string             `bson:"ended_by,omitempty" json:"ended_by,omitempty"`
}

// PairKey identifies an unordered pair of profiles. The two ids are sorted so
// (a, b) and (b, a) share one key.
func PairKey(a, b string) string {
	lo, hi := orderPair(a, b)
	return lo + ":" + hi
}

func orderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func NewMatch(a, b string, now time.Time) *Match {
	lo, hi := orderPair(a, b)
	return &Match{
		ID:              primitive.NewObjectID(),
		Users:           []string{lo, hi},
		PairKey:         lo + ":" + hi,
		Status:          MatchActive,
		CreatedAt:       now,
		LastInteraction: now,
	}
}

func (m *Match) IsActive() bool {
	return m.Status == MatchActive
}

func (m *Match) HasParticipant(id string) bool {
	for _, u := range m.Users {
		if u == id {
			return true
		}
	}
	return false
}

// Other returns the participant that is not id.
func (m *Match) Other(id string) string {
	for _, u := range m.Users {
		if u != id {
			return u
		}
	}
	return ""
}

// MatchSummary is a match as seen by one participant.
type MatchSummary struct {
	Match
	Partner *PublicProfile `json:"partner,omitempty"`
}
