package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/MosinFAM/bizdirectory/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedBusinesses(t *testing.T, store storage.ProfileStorage) {
	t.Helper()
	ctx := context.Background()
	lat, lng := 40.7, -74.0
	tokyoLat, tokyoLng := 35.6, 139.7
	fijiLat, fijiLng := -17.7, 178.0
	profiles := []models.Profile{
		{ID: "b1", IsBusiness: true, Name: "Blue Bottle Coffee", Latitude: &lat, Longitude: &lng},
		{ID: "b2", IsBusiness: true, Name: "Bottle Shop", Latitude: &tokyoLat, Longitude: &tokyoLng},
		{ID: "b3", IsBusiness: true, Name: "Fiji Water Sports", Latitude: &fijiLat, Longitude: &fijiLng},
		{ID: "b4", IsBusiness: true, Name: "Nowhere Bakery"},
		{ID: "u1", Name: "Coffee Lover"},
	}
	for _, p := range profiles {
		require.NoError(t, store.SaveProfile(ctx, p))
	}
}

func businessIDs(businesses []models.BusinessProfile) []string {
	ids := []string{}
	for _, b := range businesses {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestSaveUserProfile(t *testing.T) {
	store := storage.NewMemoryStorage()
	s := NewProfiles(store)
	ctx := context.Background()

	err := s.SaveUserProfile(ctx, "u1", ProfileInput{Name: "Alice", Location: "Oslo", Bio: "hi", Lat: "59.9", Lng: "10.7"})
	require.NoError(t, err)

	p, err := s.GetUserProfile(ctx, "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserProfile{ID: "u1", Name: "Alice", Location: "Oslo", Bio: "hi", IsCurrentUser: true}, p)

	p, err = s.GetUserProfile(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, p.IsCurrentUser)

	stored, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.True(t, stored.HasGeoPoint())
	assert.InDelta(t, 59.9, *stored.Latitude, 1e-9)
}

func TestSaveUserProfile_Errors(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	s := NewProfiles(mockStorage)
	ctx := context.Background()

	assert.Equal(t, KindAuthorization, KindOf(s.SaveUserProfile(ctx, "", ProfileInput{Name: "Alice"})))
	assert.Equal(t, KindValidation, KindOf(s.SaveUserProfile(ctx, "u1", ProfileInput{})))
	assert.Equal(t, KindForbidden, KindOf(s.SaveUserProfile(ctx, "u1", ProfileInput{Name: "Alice", IsBusiness: models.Yes})))
	assert.Equal(t, KindValidation, KindOf(s.SaveUserProfile(ctx, "u1", ProfileInput{Name: "Alice", Lat: "north"})))

	mockStorage.AssertNotCalled(t, "SaveProfile", mock.Anything, mock.Anything)
}

func TestSaveBusiness(t *testing.T) {
	store := storage.NewMemoryStorage()
	s := NewProfiles(store)
	ctx := context.Background()

	in := ProfileInput{IsBusiness: models.Yes, Name: "Corner Cafe", Story: "since 1990", Calendar: "cafe@example.com"}
	require.NoError(t, s.SaveBusiness(ctx, "b1", in))

	b, err := s.GetBusiness(ctx, "b1", "")
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", b.Name)
	assert.Equal(t, "since 1990", b.Story)
	assert.Equal(t, "cafe@example.com", b.CalendarEmail)
	assert.Nil(t, b.Latitude)
	assert.False(t, b.IsCurrentUser)

	b, err = s.GetBusiness(ctx, "b1", "b1")
	require.NoError(t, err)
	assert.True(t, b.IsCurrentUser)

	_, err = s.GetUserProfile(ctx, "b1", "")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSaveBusiness_Errors(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	s := NewProfiles(mockStorage)
	ctx := context.Background()

	assert.Equal(t, KindAuthorization, KindOf(s.SaveBusiness(ctx, "", ProfileInput{Name: "Cafe", IsBusiness: models.Yes})))
	assert.Equal(t, KindValidation, KindOf(s.SaveBusiness(ctx, "b1", ProfileInput{IsBusiness: models.Yes})))
	assert.Equal(t, KindForbidden, KindOf(s.SaveBusiness(ctx, "b1", ProfileInput{Name: "Cafe", IsBusiness: models.No})))
	assert.Equal(t, KindValidation, KindOf(s.SaveBusiness(ctx, "b1", ProfileInput{Name: "Cafe", IsBusiness: models.Yes, Lng: "east"})))

	mockStorage.AssertNotCalled(t, "SaveProfile", mock.Anything, mock.Anything)
}

func TestGetProfile_NotFound(t *testing.T) {
	s := NewProfiles(storage.NewMemoryStorage())
	ctx := context.Background()

	_, err := s.GetUserProfile(ctx, "ghost", "")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.GetBusiness(ctx, "ghost", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetBusiness_StorageFailure(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	s := NewProfiles(mockStorage)
	ctx := context.Background()

	mockStorage.On("GetProfile", ctx, "b1").Return(nil, errors.New("timeout"))

	_, err := s.GetBusiness(ctx, "b1", "")
	assert.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
	mockStorage.AssertExpectations(t)
}

func TestListBusinesses(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedBusinesses(t, store)
	s := NewProfiles(store)
	ctx := context.Background()

	businesses, err := s.ListBusinesses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, businessIDs(businesses))

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 5)
}

func TestSearchBusinesses(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedBusinesses(t, store)
	s := NewProfiles(store)
	ctx := context.Background()

	tests := []struct {
		term string
		want []string
	}{
		{"bottle", []string{"b1", "b2"}},
		{"BOT", []string{"b1", "b2"}},
		{"blue bot", []string{"b1"}},
		{"coffee", []string{"b1"}},
		{"ottle", []string{}},
		{"bakery shop", []string{}},
		{"   ", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, err := s.SearchBusinesses(ctx, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, businessIDs(got))
		})
	}
}

func TestBusinessesInBounds(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedBusinesses(t, store)
	s := NewProfiles(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		bounds Bounds
		want   []string
	}{
		{"new york", Bounds{SWLat: 40, SWLng: -75, NELat: 41, NELng: -73}, []string{"b1"}},
		{"world", Bounds{SWLat: -90, SWLng: -180, NELat: 90, NELng: 180}, []string{"b1", "b2", "b3"}},
		{"across antimeridian", Bounds{SWLat: -20, SWLng: 170, NELat: -10, NELng: -170}, []string{"b3"}},
		{"empty ocean", Bounds{SWLat: 0, SWLng: -30, NELat: 10, NELng: -20}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.BusinessesInBounds(ctx, tt.bounds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, businessIDs(got))
		})
	}
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds([]string{"1.5", "-2", "3", "4.25"})
	require.NoError(t, err)
	assert.Equal(t, Bounds{SWLat: 1.5, SWLng: -2, NELat: 3, NELng: 4.25}, b)

	_, err = ParseBounds([]string{"1", "2", "3"})
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = ParseBounds([]string{"1", "2", "x", "4"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestEnsureProfile(t *testing.T) {
	store := storage.NewMemoryStorage()
	s := NewProfiles(store)
	ctx := context.Background()

	require.NoError(t, s.EnsureProfile(ctx, "u1"))
	p, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.AnonymousName, p.Name)
	assert.False(t, p.IsBusiness)

	require.NoError(t, s.SaveUserProfile(ctx, "u1", ProfileInput{Name: "Alice"}))
	require.NoError(t, s.EnsureProfile(ctx, "u1"))
	p, err = store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)

	assert.Equal(t, KindAuthorization, KindOf(s.EnsureProfile(ctx, "")))
}

func TestIsBusiness(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedBusinesses(t, store)
	s := NewProfiles(store)
	ctx := context.Background()

	isBusiness, err := s.IsBusiness(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, isBusiness)

	isBusiness, err = s.IsBusiness(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, isBusiness)

	_, err = s.IsBusiness(ctx, "ghost")
	assert.Equal(t, KindNotFound, KindOf(err))
}
