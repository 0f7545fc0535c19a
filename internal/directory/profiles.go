package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/MosinFAM/bizdirectory/internal/storage"
	log "github.com/sirupsen/logrus"
)

// ProfileInput is a submitted profile form. Lat and Lng are raw form values;
// empty means the coordinate is not set.
type ProfileInput struct {
	IsBusiness string
	Name       string
	Location   string
	Bio        string
	Story      string
	About      string
	Calendar   string
	Support    string
	Lat        string
	Lng        string
}

// Bounds is a map viewport given by its south-west and north-east corners.
type Bounds struct {
	SWLat, SWLng float64
	NELat, NELng float64
}

// ParseBounds reads swLat/swLng/neLat/neLng path segments.
func ParseBounds(segments []string) (Bounds, error) {
	if len(segments) < 4 {
		return Bounds{}, newError(KindNotFound, "The map is not found.")
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(segments[i], 64)
		if err != nil {
			return Bounds{}, newError(KindValidation, "Invalid map coordinate %q.", segments[i])
		}
		v[i] = f
	}
	return Bounds{SWLat: v[0], SWLng: v[1], NELat: v[2], NELng: v[3]}, nil
}

// Contains reports whether the point lies in b. A viewport whose west edge is east of
// its east edge crosses the antimeridian.
func (b Bounds) Contains(lat, lng float64) bool {
	if lat < b.SWLat || lat > b.NELat {
		return false
	}
	if b.SWLng <= b.NELng {
		return lng >= b.SWLng && lng <= b.NELng
	}
	return lng >= b.SWLng || lng <= b.NELng
}

// Profiles is the profile directory: user and business pages, search and the map.
type Profiles struct {
	store storage.ProfileStorage
}

func NewProfiles(store storage.ProfileStorage) *Profiles {
	return &Profiles{store: store}
}

const profileNotFound = "The profile you were looking for was not found in our records!"

func (s *Profiles) GetUserProfile(ctx context.Context, id, callerID string) (models.UserProfile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.UserProfile{}, newError(KindNotFound, profileNotFound)
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if p.IsBusiness {
		return models.UserProfile{}, newError(KindNotFound, profileNotFound)
	}
	if p.Name == "" {
		p.Name = models.AnonymousName
	}
	return p.UserView(callerID), nil
}

func (s *Profiles) GetBusiness(ctx context.Context, id, callerID string) (models.BusinessProfile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !p.IsBusiness) {
		return models.BusinessProfile{}, newError(KindNotFound, "The business you were looking was not found in our records!")
	}
	if err != nil {
		return models.BusinessProfile{}, fmt.Errorf("get business: %w", err)
	}
	return p.BusinessView(callerID), nil
}

// SaveUserProfile upserts the caller's own non-business profile.
func (s *Profiles) SaveUserProfile(ctx context.Context, callerID string, in ProfileInput) error {
	if err := checkProfileInput(callerID, in); err != nil {
		return err
	}
	if in.IsBusiness == models.Yes {
		return newError(KindForbidden, "You don't have permission to perform this action!")
	}

	p, err := in.profile(callerID)
	if err != nil {
		return err
	}
	p.Story, p.About, p.Calendar, p.Support = "", "", "", ""
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	log.WithField("user_id", callerID).Info("profile saved")
	return nil
}

// SaveBusiness upserts the caller's own business profile.
func (s *Profiles) SaveBusiness(ctx context.Context, callerID string, in ProfileInput) error {
	if err := checkProfileInput(callerID, in); err != nil {
		return err
	}
	if in.IsBusiness != models.Yes {
		return newError(KindForbidden, "You don't have permission to perform this action!")
	}

	p, err := in.profile(callerID)
	if err != nil {
		return err
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save business: %w", err)
	}
	log.WithField("business_id", callerID).Info("business saved")
	return nil
}

// ListProfiles returns the public view of every profile, businesses included.
func (s *Profiles) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	profiles, err := s.store.ListProfiles(ctx, storage.ProfileQuery{})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]models.UserProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.UserView(""))
	}
	return out, nil
}

func (s *Profiles) ListBusinesses(ctx context.Context) ([]models.BusinessProfile, error) {
	return s.businesses(ctx, func(models.Profile) bool { return true })
}

// SearchBusinesses matches businesses whose name has, for every word of term, a word
// starting with it. Case is ignored. An empty term matches nothing.
func (s *Profiles) SearchBusinesses(ctx context.Context, term string) ([]models.BusinessProfile, error) {
	prefixes := strings.Fields(strings.ToLower(term))
	if len(prefixes) == 0 {
		return []models.BusinessProfile{}, nil
	}
	return s.businesses(ctx, func(p models.Profile) bool {
		return matchesPrefixes(strings.Fields(strings.ToLower(p.Name)), prefixes)
	})
}

// BusinessesInBounds returns the businesses located inside b.
func (s *Profiles) BusinessesInBounds(ctx context.Context, b Bounds) ([]models.BusinessProfile, error) {
	return s.businesses(ctx, func(p models.Profile) bool {
		return p.HasGeoPoint() && b.Contains(*p.Latitude, *p.Longitude)
	})
}

// EnsureProfile creates the default profile of a user seen for the first time.
func (s *Profiles) EnsureProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return newError(KindAuthorization, "User must be logged in.")
	}
	created, err := s.store.CreateProfileIfAbsent(ctx, models.Profile{ID: userID, Name: models.AnonymousName})
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if created {
		log.WithField("user_id", userID).Info("new user profile created")
	}
	return nil
}

// IsBusiness reports the business flag of an existing profile.
func (s *Profiles) IsBusiness(ctx context.Context, userID string) (bool, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, newError(KindNotFound, profileNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("get profile: %w", err)
	}
	return p.IsBusiness, nil
}

func (s *Profiles) businesses(ctx context.Context, keep func(models.Profile) bool) ([]models.BusinessProfile, error) {
	profiles, err := s.store.ListProfiles(ctx, storage.ProfileQuery{BusinessOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	out := []models.BusinessProfile{}
	for _, p := range profiles {
		if keep(p) {
			out = append(out, p.BusinessView(""))
		}
	}
	return out, nil
}

func matchesPrefixes(words, prefixes []string) bool {
	for _, prefix := range prefixes {
		found := false
		for _, w := range words {
			if strings.HasPrefix(w, prefix) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func checkProfileInput(callerID string, in ProfileInput) error {
	if callerID == "" {
		return newError(KindAuthorization, "You don't have permission to perform this action!")
	}
	if in.Name == "" {
		return newError(KindValidation, "Required field: name was not filled out.")
	}
	return nil
}

func (in ProfileInput) profile(id string) (models.Profile, error) {
	p := models.Profile{
		ID:         id,
		IsBusiness: in.IsBusiness == models.Yes,
		Name:       in.Name,
		Location:   in.Location,
		Bio:        in.Bio,
		Story:      in.Story,
		About:      in.About,
		Calendar:   in.Calendar,
		Support:    in.Support,
	}
	var err error
	if p.Latitude, err = parseCoordinate("lat", in.Lat); err != nil {
		return p, err
	}
	if p.Longitude, err = parseCoordinate("lng", in.Lng); err != nil {
		return p, err
	}
	return p, nil
}

func parseCoordinate(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, newError(KindValidation, "Parameter '%s' must be a number.", name)
	}
	return &f, nil
}
