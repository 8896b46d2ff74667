package models

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/rendez/internal/geo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is a process-local ProfileRepo and MatchRepo. It is used for
// local development without MongoDB and in tests. Nearby lookups fall back to
// a bounding-box pre-filter plus haversine scan, which is O(n) in the number
// of profiles.
type MemoryRepo struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	matches  map[primitive.ObjectID]*Match
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles: make(map[string]*Profile),
		matches:  make(map[primitive.ObjectID]*Match),
	}
}

func cloneProfile(p *Profile) *Profile {
	c := *p
	c.Liked = slices.Clone(p.Liked)
	c.Matches = slices.Clone(p.Matches)
	c.Photos = slices.Clone(p.Photos)
	if p.Location != nil {
		loc := GeoPoint{Type: p.Location.Type, Coordinates: slices.Clone(p.Location.Coordinates)}
		c.Location = &loc
	}
	return &c
}

func cloneMatch(m *Match) *Match {
	c := *m
	c.Users = slices.Clone(m.Users)
	return &c
}

func (r *MemoryRepo) CreateProfile(ctx context.Context, profile *Profile) error {
	if profile.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[profile.ID]; ok {
		return fmt.Errorf("profile %s: %w", profile.ID, ErrDuplicate)
	}
	if r.contactTaken(profile.Email, profile.PhoneNumber, "") {
		return fmt.Errorf("email or phone number: %w", ErrDuplicate)
	}
	r.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *MemoryRepo) contactTaken(email, phone, excludeID string) bool {
	return r.findContact(email, phone, excludeID) != nil
}

func (r *MemoryRepo) findContact(email, phone, excludeID string) *Profile {
	for id, p := range r.profiles {
		if id == excludeID {
			continue
		}
		if (email != "" && p.Email == email) || (phone != "" && p.PhoneNumber == phone) {
			return p
		}
	}
	return nil
}

func (r *MemoryRepo) GetProfile(ctx context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return cloneProfile(p), nil
}

func (r *MemoryRepo) GetProfiles(ctx context.Context, ids []string) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Profile{}
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) FindByContact(ctx context.Context, email, phone, excludeID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p := r.findContact(email, phone, excludeID); p != nil {
		return cloneProfile(p), nil
	}
	return nil, fmt.Errorf("contact lookup: %w", ErrNotFound)
}

// mutate applies fn to the stored profile under the write lock and returns a copy.
func (r *MemoryRepo) mutate(id string, fn func(p *Profile) error) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	return cloneProfile(p), nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*Profile, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	return r.mutate(id, func(p *Profile) error {
		email, _ := fields["email"].(string)
		phone, _ := fields["phone_number"].(string)
		if r.contactTaken(email, phone, id) {
			return fmt.Errorf("email or phone number: %w", ErrDuplicate)
		}
		for k, v := range fields {
			if err := applyField(p, k, v); err != nil {
				return err
			}
		}
		p.UpdatedAt = time.Now()
		return nil
	})
}

func applyField(p *Profile, key string, v interface{}) error {
	var ok bool
	switch key {
	case "first_name":
		p.FirstName, ok = v.(string)
	case "email":
		p.Email, ok = v.(string)
	case "phone_number":
		p.PhoneNumber, ok = v.(string)
	case "bio":
		p.Bio, ok = v.(string)
	case "gender":
		p.Gender, ok = v.(Gender)
	case "interested_in":
		p.InterestedIn, ok = v.(Gender)
	case "discovery_radius_km":
		p.DiscoveryRadiusKm, ok = v.(float64)
	case "birth_date":
		var t time.Time
		t, ok = v.(time.Time)
		p.BirthDate = &t
	default:
		return fmt.Errorf("unknown profile field %q", key)
	}
	if !ok {
		return fmt.Errorf("invalid value for profile field %q", key)
	}
	return nil
}

func (r *MemoryRepo) UpdateLocation(ctx context.Context, id string, point GeoPoint, at time.Time) (*Profile, error) {
	return r.mutate(id, func(p *Profile) error {
		loc := NewGeoPoint(point.Longitude(), point.Latitude())
		p.Location = &loc
		p.LocationUpdatedAt = &at
		p.UpdatedAt = at
		return nil
	})
}

func (r *MemoryRepo) SetPresence(ctx context.Context, id string, online bool, at time.Time) error {
	_, err := r.mutate(id, func(p *Profile) error {
		p.IsOnline = online
		p.LastActive = &at
		return nil
	})
	return err
}

func (r *MemoryRepo) AddPhoto(ctx context.Context, id, url string) (*Profile, error) {
	return r.mutate(id, func(p *Profile) error {
		p.Photos = append(p.Photos, url)
		p.UpdatedAt = time.Now()
		return nil
	})
}

func (r *MemoryRepo) RemovePhoto(ctx context.Context, id, url string) (*Profile, error) {
	return r.mutate(id, func(p *Profile) error {
		p.Photos = slices.DeleteFunc(p.Photos, func(s string) bool { return s == url })
		p.UpdatedAt = time.Now()
		return nil
	})
}

func addToSet(set []string, v string) []string {
	if slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}

func pull(set []string, v string) []string {
	return slices.DeleteFunc(set, func(s string) bool { return s == v })
}

func (r *MemoryRepo) AddLike(ctx context.Context, likerID, targetID string) (*Profile, error) {
	return r.mutate(likerID, func(p *Profile) error {
		p.Liked = addToSet(p.Liked, targetID)
		return nil
	})
}

func (r *MemoryRepo) RemoveLike(ctx context.Context, likerID, targetID string) (*Profile, error) {
	return r.mutate(likerID, func(p *Profile) error {
		p.Liked = pull(p.Liked, targetID)
		return nil
	})
}

func (r *MemoryRepo) HasLiked(ctx context.Context, likerID, targetID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[likerID]
	if !ok {
		return false, nil
	}
	return slices.Contains(p.Liked, targetID), nil
}

func (r *MemoryRepo) AddMatch(ctx context.Context, a, b string) error {
	if _, err := r.mutate(a, func(p *Profile) error {
		p.Matches = addToSet(p.Matches, b)
		return nil
	}); err != nil {
		return err
	}
	_, err := r.mutate(b, func(p *Profile) error {
		p.Matches = addToSet(p.Matches, a)
		return nil
	})
	return err
}

func (r *MemoryRepo) RemoveMatch(ctx context.Context, a, b string) error {
	if _, err := r.mutate(a, func(p *Profile) error {
		p.Matches = pull(p.Matches, b)
		return nil
	}); err != nil {
		return err
	}
	_, err := r.mutate(b, func(p *Profile) error {
		p.Matches = pull(p.Matches, a)
		return nil
	})
	return err
}

func (r *MemoryRepo) ResetPair(ctx context.Context, a, b string) error {
	if _, err := r.mutate(a, func(p *Profile) error {
		p.Matches = pull(p.Matches, b)
		p.Liked = pull(p.Liked, b)
		return nil
	}); err != nil {
		return err
	}
	_, err := r.mutate(b, func(p *Profile) error {
		p.Matches = pull(p.Matches, a)
		p.Liked = pull(p.Liked, a)
		return nil
	})
	return err
}

func (r *MemoryRepo) FindNearby(ctx context.Context, q NearbyQuery) ([]*NearbyProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lat, lng := q.Origin.Latitude(), q.Origin.Longitude()
	box := geo.BoundingBox(lat, lng, q.RadiusMeters)

	results := []*NearbyProfile{}
	for id, p := range r.profiles {
		if p.Location == nil || slices.Contains(q.Exclude, id) {
			continue
		}
		if p.Gender != q.Gender || p.InterestedIn != q.InterestedIn {
			continue
		}
		pLat, pLng := p.Location.Latitude(), p.Location.Longitude()
		if !box.Contains(pLat, pLng) {
			continue
		}
		d := geo.HaversineMeters(lat, lng, pLat, pLng)
		if d > q.RadiusMeters {
			continue
		}
		results = append(results, &NearbyProfile{Profile: *cloneProfile(p), DistanceMeters: d})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMeters != results[j].DistanceMeters {
			return results[i].DistanceMeters < results[j].DistanceMeters
		}
		return results[i].ID < results[j].ID
	})

	if q.Offset >= len(results) {
		return []*NearbyProfile{}, nil
	}
	results = results[q.Offset:]
	if q.Limit > 0 && q.Limit < len(results) {
		results = results[:q.Limit]
	}
	return results, nil
}

func (r *MemoryRepo) CreateMatch(ctx context.Context, match *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.matches {
		if m.PairKey == match.PairKey && m.IsActive() {
			return fmt.Errorf("match %s: %w", match.PairKey, ErrConflict)
		}
	}
	if match.ID.IsZero() {
		match.ID = primitive.NewObjectID()
	}
	r.matches[match.ID] = cloneMatch(match)
	return nil
}

func (r *MemoryRepo) FindActiveMatch(ctx context.Context, a, b string) (*Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := PairKey(a, b)
	for _, m := range r.matches {
		if m.PairKey == key && m.IsActive() {
			return cloneMatch(m), nil
		}
	}
	return nil, fmt.Errorf("active match %s: %w", key, ErrNotFound)
}

func (r *MemoryRepo) GetMatch(ctx context.Context, id string) (*Match, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[oid]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return cloneMatch(m), nil
}

func (r *MemoryRepo) ListMatchesForUser(ctx context.Context, userID string, status MatchStatus) ([]*Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Match{}
	for _, m := range r.matches {
		if !m.HasParticipant(userID) {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, cloneMatch(m))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastInteraction.After(out[j].LastInteraction)
	})
	return out, nil
}

func (r *MemoryRepo) DeactivateMatch(ctx context.Context, id, endedBy string, at time.Time) (*Match, error) {
	return r.mutateActiveMatch(id, func(m *Match) {
		m.Status = MatchInactive
		m.EndedAt = &at
		m.EndedBy = endedBy
	})
}

func (r *MemoryRepo) TouchMatch(ctx context.Context, id string, at time.Time) (*Match, error) {
	return r.mutateActiveMatch(id, func(m *Match) {
		if at.After(m.LastInteraction) {
			m.LastInteraction = at
		}
	})
}

func (r *MemoryRepo) mutateActiveMatch(id string, fn func(m *Match)) (*Match, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[oid]
	if !ok || !m.IsActive() {
		return nil, fmt.Errorf("active match %s: %w", id, ErrNotFound)
	}
	fn(m)
	return cloneMatch(m), nil
}
