package storage

import (
	"context"
	"errors"

	"github.com/MosinFAM/bizdirectory/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert would break a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrParentMismatch is returned when a reply names a parent on another business.
	ErrParentMismatch = errors.New("parent belongs to another business")
)

// CommentField is the single property a comment listing is filtered on.
type CommentField int

const (
	CommentsByUser CommentField = iota
	CommentsByBusiness
	CommentsByParent
)

func (f CommentField) column() string {
	switch f {
	case CommentsByUser:
		return "user_id"
	case CommentsByBusiness:
		return "business_id"
	default:
		return "parent_id"
	}
}

// CommentQuery selects comments with Field == Value, newest first.
type CommentQuery struct {
	Field     CommentField
	Value     string
	RootsOnly bool
	Limit     int
}

func (q CommentQuery) matches(c models.Comment) bool {
	var v string
	switch q.Field {
	case CommentsByUser:
		v = c.UserID
	case CommentsByBusiness:
		v = c.BusinessID
	default:
		v = c.ParentID
	}
	if v != q.Value {
		return false
	}
	return !q.RootsOnly || c.IsRoot()
}

// FollowQuery selects follows by follower or by business. Exactly one field is set.
type FollowQuery struct {
	UserID     string
	BusinessID string
}

// ProfileQuery selects profiles; the zero value selects all of them.
type ProfileQuery struct {
	BusinessOnly bool
}

// CommentStorage persists comments and their parent/child relation.
type CommentStorage interface {
	// AddComment stores c. A reply marks its parent as having replies; ErrNotFound
	// is returned if the parent does not exist and ErrParentMismatch if it belongs
	// to a different business.
	AddComment(ctx context.Context, c models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, q CommentQuery) ([]models.Comment, error)
	// SubscribeToComments streams comments added to a business until ctx is done.
	SubscribeToComments(ctx context.Context, businessID string) (<-chan models.Comment, error)
}

// FollowStorage persists the user -> business follow relation.
type FollowStorage interface {
	// AddFollow returns ErrDuplicate if the pair is already present.
	AddFollow(ctx context.Context, f models.Follow) error
	// DeleteFollow returns ErrNotFound if the pair is absent.
	DeleteFollow(ctx context.Context, userID, businessID string) error
	FollowExists(ctx context.Context, userID, businessID string) (bool, error)
	ListFollows(ctx context.Context, q FollowQuery) ([]models.Follow, error)
}

// ProfileStorage is the profile directory.
type ProfileStorage interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	ListProfiles(ctx context.Context, q ProfileQuery) ([]models.Profile, error)
	SaveProfile(ctx context.Context, p models.Profile) error
	// CreateProfileIfAbsent reports whether p was inserted.
	CreateProfileIfAbsent(ctx context.Context, p models.Profile) (bool, error)
}

// Storage - interface for every backend (in-memory, PostgreSQL, SQLite)
type Storage interface {
	CommentStorage
	FollowStorage
	ProfileStorage
	Close() error
}
