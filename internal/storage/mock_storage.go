package storage

import (
	"context"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) AddComment(ctx context.Context, c models.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockStorage) ListComments(ctx context.Context, q CommentQuery) ([]models.Comment, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockStorage) SubscribeToComments(ctx context.Context, businessID string) (<-chan models.Comment, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(chan models.Comment), args.Error(1)
}

func (m *MockStorage) AddFollow(ctx context.Context, f models.Follow) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStorage) DeleteFollow(ctx context.Context, userID, businessID string) error {
	args := m.Called(ctx, userID, businessID)
	return args.Error(0)
}

func (m *MockStorage) FollowExists(ctx context.Context, userID, businessID string) (bool, error) {
	args := m.Called(ctx, userID, businessID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ListFollows(ctx context.Context, q FollowQuery) ([]models.Follow, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.Follow), args.Error(1)
}

func (m *MockStorage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockStorage) ListProfiles(ctx context.Context, q ProfileQuery) ([]models.Profile, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.Profile), args.Error(1)
}

func (m *MockStorage) SaveProfile(ctx context.Context, p models.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) CreateProfileIfAbsent(ctx context.Context, p models.Profile) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}
