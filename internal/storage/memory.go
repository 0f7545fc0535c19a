package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/MosinFAM/bizdirectory/internal/models"
	log "github.com/sirupsen/logrus"
)

type followKey struct {
	userID     string
	businessID string
}

// MemoryStorage - in-memory storage
type MemoryStorage struct {
	mu       sync.RWMutex
	comments map[string]models.Comment
	follows  map[followKey]models.Follow
	profiles map[string]models.Profile
	hub      *commentHub
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		comments: make(map[string]models.Comment),
		follows:  make(map[followKey]models.Follow),
		profiles: make(map[string]models.Profile),
		hub:      newCommentHub(),
	}
}

func (s *MemoryStorage) Close() error { return nil }

// AddComment stores a comment and flags its parent
func (s *MemoryStorage) AddComment(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	log.Debugf("Adding comment %s to business %s", c.ID, c.BusinessID)
	if !c.IsRoot() {
		parent, exists := s.comments[c.ParentID]
		if !exists {
			s.mu.Unlock()
			return ErrNotFound
		}
		if parent.BusinessID != c.BusinessID {
			s.mu.Unlock()
			return ErrParentMismatch
		}
		parent.HasReplies = true
		s.comments[parent.ID] = parent
	}
	s.comments[c.ID] = c
	s.mu.Unlock()

	s.hub.publish(c)
	return nil
}

// GetComment returns a comment by ID
func (s *MemoryStorage) GetComment(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.comments[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &c, nil
}

// ListComments returns matching comments, newest first
func (s *MemoryStorage) ListComments(_ context.Context, q CommentQuery) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Comment{}
	for _, c := range s.comments {
		if q.matches(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp > result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// SubscribeToComments subscribes to new comments on a business
func (s *MemoryStorage) SubscribeToComments(ctx context.Context, businessID string) (<-chan models.Comment, error) {
	log.Debugf("Subscribing to comments for business %s", businessID)
	return s.hub.subscribe(ctx, businessID), nil
}

// AddFollow inserts a follow; the check and the insert share one critical section
func (s *MemoryStorage) AddFollow(_ context.Context, f models.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey{f.UserID, f.BusinessID}
	if _, exists := s.follows[key]; exists {
		return ErrDuplicate
	}
	s.follows[key] = f
	return nil
}

func (s *MemoryStorage) DeleteFollow(_ context.Context, userID, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey{userID, businessID}
	if _, exists := s.follows[key]; !exists {
		return ErrNotFound
	}
	delete(s.follows, key)
	return nil
}

func (s *MemoryStorage) FollowExists(_ context.Context, userID, businessID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.follows[followKey{userID, businessID}]
	return exists, nil
}

func (s *MemoryStorage) ListFollows(_ context.Context, q FollowQuery) ([]models.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Follow{}
	for key, f := range s.follows {
		if q.UserID != "" && key.userID != q.UserID {
			continue
		}
		if q.BusinessID != "" && key.businessID != q.BusinessID {
			continue
		}
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UserID != result[j].UserID {
			return result[i].UserID < result[j].UserID
		}
		return result[i].BusinessID < result[j].BusinessID
	})
	return result, nil
}

// GetProfile returns a profile by ID
func (s *MemoryStorage) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.profiles[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStorage) ListProfiles(_ context.Context, q ProfileQuery) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Profile{}
	for _, p := range s.profiles {
		if q.BusinessOnly && !p.IsBusiness {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStorage) SaveProfile(_ context.Context, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Debugf("Saving profile %s", p.ID)
	s.profiles[p.ID] = p
	return nil
}

func (s *MemoryStorage) CreateProfileIfAbsent(_ context.Context, p models.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return false, nil
	}
	s.profiles[p.ID] = p
	return true, nil
}
