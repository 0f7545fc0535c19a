package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/MosinFAM/bizdirectory/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CommentLimit caps every comment listing.
const CommentLimit = 20

const invalidCommentFilter = "Requests must have exactly one of the following parameters: userId, businessId, or parentId"

// NewComment is the input of AddComment. ParentID is optional and defaults to a root comment;
// AuthorID is optional and defaults to the caller.
type NewComment struct {
	Content    string
	BusinessID string
	AuthorID   string
	ParentID   string
}

// CommentFilter selects comments by exactly one of its fields. An empty value
// counts as unset.
type CommentFilter struct {
	UserID     *string
	BusinessID *string
	ParentID   *string
}

func ByAuthor(userID string) CommentFilter       { return CommentFilter{UserID: &userID} }
func ByBusiness(businessID string) CommentFilter { return CommentFilter{BusinessID: &businessID} }
func ByParent(parentID string) CommentFilter     { return CommentFilter{ParentID: &parentID} }

func (f CommentFilter) query() (storage.CommentQuery, error) {
	var (
		q   storage.CommentQuery
		set int
	)
	if f.UserID != nil && *f.UserID != "" {
		q = storage.CommentQuery{Field: storage.CommentsByUser, Value: *f.UserID}
		set++
	}
	if f.BusinessID != nil && *f.BusinessID != "" {
		q = storage.CommentQuery{Field: storage.CommentsByBusiness, Value: *f.BusinessID, RootsOnly: true}
		set++
	}
	if f.ParentID != nil && *f.ParentID != "" {
		q = storage.CommentQuery{Field: storage.CommentsByParent, Value: *f.ParentID}
		set++
	}
	if set != 1 {
		return q, newError(KindValidation, invalidCommentFilter)
	}
	q.Limit = CommentLimit
	return q, nil
}

// Comments owns comment creation and the three comment listings.
type Comments struct {
	store    storage.CommentStorage
	profiles storage.ProfileStorage
	now      func() time.Time
	newID    func() string
}

func NewComments(store storage.CommentStorage, profiles storage.ProfileStorage) *Comments {
	return &Comments{
		store:    store,
		profiles: profiles,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// AddComment validates and stores a comment posted by callerID, returning its id.
func (s *Comments) AddComment(ctx context.Context, callerID string, in NewComment) (string, error) {
	if in.Content == "" {
		return "", newError(KindValidation, "Parameter 'content' missing in request.")
	}
	if in.BusinessID == "" {
		return "", newError(KindValidation, "Parameter 'businessId' missing in request.")
	}
	if callerID == "" {
		return "", newError(KindAuthorization, "User must be logged in to post comment")
	}
	if in.AuthorID != "" && in.AuthorID != callerID {
		return "", newError(KindAuthorization, "Cannot post a comment on behalf of another user")
	}

	c := models.Comment{
		ID:         s.newID(),
		Content:    in.Content,
		Timestamp:  s.now().UnixMilli(),
		UserID:     callerID,
		BusinessID: in.BusinessID,
		ParentID:   in.ParentID,
	}
	if err := s.store.AddComment(ctx, c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", newError(KindValidation, "Parent comment %s does not exist", in.ParentID)
		}
		if errors.Is(err, storage.ErrParentMismatch) {
			return "", newError(KindValidation, "Parent comment %s belongs to a different business", in.ParentID)
		}
		return "", fmt.Errorf("add comment: %w", err)
	}

	log.WithFields(log.Fields{"comment_id": c.ID, "business_id": c.BusinessID, "parent_id": c.ParentID}).Info("comment added")
	return c.ID, nil
}

// ListComments returns up to CommentLimit comments, newest first. Listing by business
// returns root comments only; replies are fetched by parent.
func (s *Comments) ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}

	comments, err := s.store.ListComments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	names := make(map[string]string)
	for i := range comments {
		comments[i].Name = s.authorName(ctx, comments[i].UserID, names)
	}
	return comments, nil
}

// Subscribe streams comments newly posted on a business, with author names resolved.
func (s *Comments) Subscribe(ctx context.Context, businessID string) (<-chan models.Comment, error) {
	if businessID == "" {
		return nil, newError(KindValidation, "Must specify a business ID.")
	}

	in, err := s.store.SubscribeToComments(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("subscribe to comments: %w", err)
	}

	out := make(chan models.Comment, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					return
				}
				c.Name = s.authorName(ctx, c.UserID, nil)
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// authorName never fails: a missing or unreadable profile yields the anonymous name.
func (s *Comments) authorName(ctx context.Context, userID string, seen map[string]string) string {
	if name, ok := seen[userID]; ok {
		return name
	}
	name := models.AnonymousName
	p, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err != nil:
		log.WithField("user_id", userID).Debugf("author lookup failed: %v", err)
	case p.Name != "":
		name = p.Name
	}
	if seen != nil {
		seen[userID] = name
	}
	return name
}
