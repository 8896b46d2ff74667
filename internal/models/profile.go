package models

import (
	"slices"
	"strings"
	"time"
)

const (
	DefaultRadiusKm = 50
	MaxRadiusKm     = 500
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// GeoPoint is a GeoJSON Point. Coordinates are [longitude, latitude], the
// order MongoDB's 2dsphere index expects.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

type Profile struct {
	ID                string     `bson:"_id" json:"id"`
	FirstName         string     `bson:"first_name" json:"first_name" validate:"required,min=1,max=60"`
	Email             string     `bson:"email" json:"email" validate:"required,email"`
	PhoneNumber       string     `bson:"phone_number" json:"phone_number" validate:"required,min=6,max=20"`
	Gender            Gender     `bson:"gender,omitempty" json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	InterestedIn      Gender     `bson:"interested_in,omitempty" json:"interested_in,omitempty" validate:"omitempty,oneof=male female"`
	Bio               string     `bson:"bio,omitempty" json:"bio,omitempty" validate:"max=500"`
	BirthDate         *time.Time `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	Location          *GeoPoint  `bson:"location,omitempty" json:"location,omitempty"`
	LocationUpdatedAt *time.Time `bson:"location_updated_at,omitempty" json:"location_updated_at,omitempty"`
	DiscoveryRadiusKm float64    `bson:"discovery_radius_km" json:"discovery_radius_km" validate:"gte=0,lte=500"`
	Liked             []string   `bson:"liked" json:"liked"`
	Matches           []string   `bson:"matches" json:"matches"`
	Photos            []string   `bson:"photos" json:"photos"`
	IsOnline          bool       `bson:"is_online" json:"is_online"`
	LastActive        *time.Time `bson:"last_active,omitempty" json:"last_active,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

// Normalize lowercases the email, trims free text and fills the defaults a
// freshly created profile needs.
func (p *Profile) Normalize() {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.Bio = strings.TrimSpace(p.Bio)
	if p.DiscoveryRadiusKm <= 0 {
		p.DiscoveryRadiusKm = DefaultRadiusKm
	}
	if p.Liked == nil {
		p.Liked = []string{}
	}
	if p.Matches == nil {
		p.Matches = []string{}
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
}

func (p *Profile) HasLiked(id string) bool {
	return slices.Contains(p.Liked, id)
}

func (p *Profile) IsMatchedWith(id string) bool {
	return slices.Contains(p.Matches, id)
}

func (p *Profile) HasPreferences() bool {
	return p.Gender.Valid() && p.InterestedIn.Valid()
}

// RadiusKm returns the discovery radius, falling back to the default when unset.
func (p *Profile) RadiusKm() float64 {
	if p.DiscoveryRadiusKm <= 0 {
		return DefaultRadiusKm
	}
	return p.DiscoveryRadiusKm
}

func (p *Profile) Age(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	b := p.BirthDate.UTC()
	now = now.UTC()
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

func (p *Profile) PrimaryPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

// PublicProfile is what other users get to see. Contact details never leave
// the owner's own profile endpoint.
type PublicProfile struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"first_name"`
	Age          int        `json:"age,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Gender       Gender     `json:"gender,omitempty"`
	InterestedIn Gender     `json:"interested_in,omitempty"`
	Photos       []string   `json:"photos"`
	PrimaryPhoto string     `json:"primary_photo,omitempty"`
	IsOnline     bool       `json:"is_online"`
	LastActive   *time.Time `json:"last_active,omitempty"`
}

func (p *Profile) Public(now time.Time) PublicProfile {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	return PublicProfile{
		ID:           p.ID,
		FirstName:    p.FirstName,
		Age:          p.Age(now),
		Bio:          p.Bio,
		Gender:       p.Gender,
		InterestedIn: p.InterestedIn,
		Photos:       photos,
		PrimaryPhoto: p.PrimaryPhoto(),
		IsOnline:     p.IsOnline,
		LastActive:   p.LastActive,
	}
}

type CandidateProfile struct {
	PublicProfile
	DistanceKm float64 `json:"distance_km"`
}

// NearbyQuery selects discoverable profiles around Origin. Gender and
// InterestedIn are the values the candidate must carry.
type NearbyQuery struct {
	Origin       GeoPoint
	RadiusMeters float64
	Gender       Gender
	InterestedIn Gender
	Exclude      []string
	Offset       int
	Limit        int
}

type NearbyProfile struct {
	Profile        `bson:",inline"`
	DistanceMeters float64 `bson:"distance_meters"`
}

// ProfilePatch carries the owner-editable fields. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName         *string    `json:"first_name" validate:"omitempty,min=1,max=60"`
	Email             *string    `json:"email" validate:"omitempty,email"`
	PhoneNumber       *string    `json:"phone_number" validate:"omitempty,min=6,max=20"`
	Bio               *string    `json:"bio" validate:"omitempty,max=500"`
	BirthDate         *time.Time `json:"birth_date"`
	Gender            *Gender    `json:"gender" validate:"omitempty,oneof=male female"`
	InterestedIn      *Gender    `json:"interested_in" validate:"omitempty,oneof=male female"`
	DiscoveryRadiusKm *float64   `json:"discovery_radius_km" validate:"omitempty,gte=1,lte=500"`
}

// Fields returns the patch as a storage update keyed by bson field name.
func (p ProfilePatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*p.FirstName)
	}
	if p.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.PhoneNumber != nil {
		fields["phone_number"] = strings.TrimSpace(*p.PhoneNumber)
	}
	if p.Bio != nil {
		fields["bio"] = strings.TrimSpace(*p.Bio)
	}
	if p.BirthDate != nil {
		fields["birth_date"] = p.BirthDate.UTC()
	}
	if p.Gender != nil {
		fields["gender"] = *p.Gender
	}
	if p.InterestedIn != nil {
		fields["interested_in"] = *p.InterestedIn
	}
	if p.DiscoveryRadiusKm != nil {
		fields["discovery_radius_km"] = *p.DiscoveryRadiusKm
	}
	return fields
}
