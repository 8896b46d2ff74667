package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/rendez/internal/models"
	"golang.org/x/sync/errgroup"
)

type LikeResult struct {
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

type MatchNotification struct {
	Match   *models.Match        `json:"match"`
	Partner models.PublicProfile `json:"partner"`
}

type MessageInput struct {
	MatchID string `json:"match_id" validate:"required"`
	Body    string `json:"body" validate:"required,max=2000"`
}

type ChatMessage struct {
	MatchID string    `json:"match_id"`
	From    string    `json:"from"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type MatchService struct {
	profiles models.ProfileRepo
	matches  models.MatchRepo
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewMatchService(profiles models.ProfileRepo, matches models.MatchRepo, notifier Notifier, logger *slog.Logger) *MatchService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MatchService{
		profiles: profiles,
		matches:  matches,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// matchable reports whether p carries the state a match participant needs.
func matchable(p *models.Profile) error {
	if p.Location == nil {
		return fmt.Errorf("profile %s has no location: %w", p.ID, models.ErrPrecondition)
	}
	if !p.HasPreferences() {
		return fmt.Errorf("profile %s has no gender preferences: %w", p.ID, models.ErrPrecondition)
	}
	return nil
}

// Like records likerID's like of targetID and establishes the match when the
// like is mutual. Repeating a like is a no-op that still reports the current
// match.
func (ms *MatchService) Like(ctx context.Context, likerID, targetID string) (*LikeResult, error) {
	if likerID == targetID {
		return nil, fmt.Errorf("cannot like your own profile: %w", models.ErrInvalidOperation)
	}

	var liker, target *models.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := ms.profiles.GetProfile(gctx, likerID)
		liker = p
		return err
	})
	g.Go(func() error {
		p, err := ms.profiles.GetProfile(gctx, targetID)
		target = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := matchable(liker); err != nil {
		return nil, err
	}
	if err := matchable(target); err != nil {
		return nil, err
	}

	// The own like is written before the reciprocity read. Two concurrent
	// likes from opposite sides therefore always see each other's write in
	// at least one of the two calls.
	if _, err := ms.profiles.AddLike(ctx, likerID, targetID); err != nil {
		return nil, err
	}
	mutual, err := ms.profiles.HasLiked(ctx, targetID, likerID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return &LikeResult{Matched: false}, nil
	}

	match, created, err := ms.ensureMatch(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}

	// An unmatch may have reset the pair after the reciprocity read above.
	// The likes are read again after the match writes so such a match is
	// undone instead of coming back without likes behind it.
	mutual, err = ms.isMutual(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		if err := ms.undoMatch(ctx, likerID, targetID, match, created); err != nil {
			return nil, err
		}
		return &LikeResult{Matched: false}, nil
	}

	if created {
		now := ms.now()
		ms.deliver(likerID, Event{Type: EventMatch, Data: MatchNotification{Match: match, Partner: target.Public(now)}})
		ms.deliver(targetID, Event{Type: EventMatch, Data: MatchNotification{Match: match, Partner: liker.Public(now)}})
	}
	return &LikeResult{Matched: true, Match: match}, nil
}

// ensureMatch makes both matched sets symmetric and returns the single active
// match for the pair, creating it if needed. The storage layer rejects a
// second active record for the same pair; the loser of that race reads back
// the winner's record.
func (ms *MatchService) ensureMatch(ctx context.Context, a, b string) (*models.Match, bool, error) {
	if err := ms.profiles.AddMatch(ctx, a, b); err != nil {
		return nil, false, err
	}

	existing, err := ms.matches.FindActiveMatch(ctx, a, b)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	match := models.NewMatch(a, b, ms.now())
	err = ms.matches.CreateMatch(ctx, match)
	if err == nil {
		ms.logger.Info("match created", "match_id", match.ID.Hex(), "users", match.Users)
		return match, true, nil
	}
	if !errors.Is(err, models.ErrConflict) {
		return nil, false, err
	}

	ms.logger.Info("concurrent match creation resolved", "pair", match.PairKey)
	existing, err = ms.matches.FindActiveMatch(ctx, a, b)
	if err != nil {
		return nil, false, fmt.Errorf("error loading winning match for %s: %v", match.PairKey, err)
	}
	return existing, false, nil
}

func (ms *MatchService) isMutual(ctx context.Context, a, b string) (bool, error) {
	ab, err := ms.profiles.HasLiked(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return ms.profiles.HasLiked(ctx, b, a)
}

// undoMatch reverts the writes of ensureMatch for a pair whose likes are gone.
// A record this call did not create belongs to the unmatch in progress.
func (ms *MatchService) undoMatch(ctx context.Context, a, b string, match *models.Match, created bool) error {
	if created {
		_, err := ms.matches.DeactivateMatch(ctx, match.ID.Hex(), a, ms.now())
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
	}
	if err := ms.profiles.RemoveMatch(ctx, a, b); err != nil {
		return err
	}
	ms.logger.Info("match dropped after concurrent unmatch", "pair", models.PairKey(a, b), "created", created)
	return nil
}

func (ms *MatchService) deliver(userID string, event Event) {
	if err := ms.notifier.DeliverToUser(userID, event); err != nil {
		ms.logger.Warn("event delivery failed", "user_id", userID, "type", event.Type, "error", err)
	}
}

// Unlike withdraws a like that has not turned into a match yet.
func (ms *MatchService) Unlike(ctx context.Context, likerID, targetID string) error {
	if likerID == targetID {
		return fmt.Errorf("cannot unlike your own profile: %w", models.ErrInvalidOperation)
	}
	liker, err := ms.profiles.GetProfile(ctx, likerID)
	if err != nil {
		return err
	}
	if liker.IsMatchedWith(targetID) {
		return fmt.Errorf("profiles are matched, unmatch first: %w", models.ErrInvalidOperation)
	}
	if !liker.HasLiked(targetID) {
		return fmt.Errorf("like for %s: %w", targetID, models.ErrNotFound)
	}
	_, err = ms.profiles.RemoveLike(ctx, likerID, targetID)
	return err
}

// participantMatch loads a match and hides it from anyone outside the pair.
func (ms *MatchService) participantMatch(ctx context.Context, userID, matchID string) (*models.Match, error) {
	match, err := ms.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(userID) {
		return nil, fmt.Errorf("match %s: %w", matchID, models.ErrNotFound)
	}
	return match, nil
}

func (ms *MatchService) GetMatch(ctx context.Context, userID, matchID string) (*models.MatchSummary, error) {
	match, err := ms.participantMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	summary := &models.MatchSummary{Match: *match}
	partner, err := ms.profiles.GetProfile(ctx, match.Other(userID))
	if err == nil {
		pub := partner.Public(ms.now())
		summary.Partner = &pub
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return summary, nil
}

// ListMatches returns the user's matches, most recent interaction first. An
// empty status lists both active and inactive records.
func (ms *MatchService) ListMatches(ctx context.Context, userID string, status models.MatchStatus) ([]*models.MatchSummary, error) {
	matches, err := ms.matches.ListMatchesForUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		partnerIDs = append(partnerIDs, m.Other(userID))
	}
	partners, err := ms.profiles.GetProfiles(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	now := ms.now()
	byID := make(map[string]models.PublicProfile, len(partners))
	for _, p := range partners {
		byID[p.ID] = p.Public(now)
	}

	out := make([]*models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		s := &models.MatchSummary{Match: *m}
		if p, ok := byID[m.Other(userID)]; ok {
			s.Partner = &p
		}
		out = append(out, s)
	}
	return out, nil
}

// Unmatch ends an active match. The record is kept as inactive history and
// the pair returns to no interaction, so a later mutual like creates a new
// record.
func (ms *MatchService) Unmatch(ctx context.Context, userID, matchID string) (*models.Match, error) {
	match, err := ms.participantMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsActive() {
		return nil, fmt.Errorf("match %s already ended: %w", matchID, models.ErrInvalidOperation)
	}

	ended, err := ms.matches.DeactivateMatch(ctx, matchID, userID, ms.now())
	if err != nil {
		return nil, err
	}
	partnerID := match.Other(userID)
	if err := ms.profiles.ResetPair(ctx, userID, partnerID); err != nil {
		return nil, err
	}

	// A like that read the pair before the reset may have created a new
	// record in the meantime; it ends with this one.
	again, err := ms.matches.FindActiveMatch(ctx, userID, partnerID)
	switch {
	case err == nil:
		if _, err := ms.matches.DeactivateMatch(ctx, again.ID.Hex(), userID, ms.now()); err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	ms.logger.Info("match ended", "match_id", matchID, "ended_by", userID)
	ms.deliver(partnerID, Event{Type: EventUnmatch, Data: ended})
	return ended, nil
}

func (ms *MatchService) TouchInteraction(ctx context.Context, userID, matchID string) (*models.Match, error) {
	if _, err := ms.participantMatch(ctx, userID, matchID); err != nil {
		return nil, err
	}
	return ms.matches.TouchMatch(ctx, matchID, ms.now())
}

// RelayMessage forwards a chat message to the other participant of an active
// match and refreshes the match's last interaction. Messages are not stored.
func (ms *MatchService) RelayMessage(ctx context.Context, fromID string, in MessageInput) (*ChatMessage, error) {
	if err := models.Validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	match, err := ms.TouchInteraction(ctx, fromID, in.MatchID)
	if err != nil {
		return nil, err
	}

	msg := &ChatMessage{
		MatchID: in.MatchID,
		From:    fromID,
		Body:    in.Body,
		SentAt:  match.LastInteraction,
	}
	ms.deliver(match.Other(fromID), Event{Type: EventMessage, Data: msg})
	return msg, nil
}
