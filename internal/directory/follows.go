package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/MosinFAM/bizdirectory/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FollowFilter selects follows by exactly one of its fields.
type FollowFilter struct {
	UserID     *string
	BusinessID *string
}

func FollowsOfUser(userID string) FollowFilter { return FollowFilter{UserID: &userID} }

func FollowersOf(businessID string) FollowFilter { return FollowFilter{BusinessID: &businessID} }

// Follows maintains the user -> business follow relation.
type Follows struct {
	follows  storage.FollowStorage
	profiles storage.ProfileStorage
	newID    func() string
}

func NewFollows(follows storage.FollowStorage, profiles storage.ProfileStorage) *Follows {
	return &Follows{follows: follows, profiles: profiles, newID: uuid.NewString}
}

// Follow makes callerID follow businessID. Checks run in order and the first failure wins.
func (s *Follows) Follow(ctx context.Context, callerID, businessID string) error {
	if callerID == "" {
		return newError(KindAuthorization, "User must be logged in to follow a business.")
	}
	if businessID == "" {
		return newError(KindValidation, "Please specify the ID of the business you would like to follow.")
	}

	exists, err := s.businessExists(ctx, businessID)
	if err != nil {
		return err
	}
	if !exists {
		return newError(KindNotFound, "Business not found.")
	}

	following, err := s.follows.FollowExists(ctx, callerID, businessID)
	if err != nil {
		return fmt.Errorf("check follow: %w", err)
	}
	if following {
		return newError(KindConflict, "Cannot follow the same business twice.")
	}
	if callerID == businessID {
		return newError(KindValidation, "You cannot follow yourself.")
	}

	// The storage layer enforces pair uniqueness, so a concurrent duplicate lands here.
	err = s.follows.AddFollow(ctx, models.Follow{ID: s.newID(), UserID: callerID, BusinessID: businessID})
	if errors.Is(err, storage.ErrDuplicate) {
		return newError(KindConflict, "Cannot follow the same business twice.")
	}
	if err != nil {
		return fmt.Errorf("add follow: %w", err)
	}

	log.WithFields(log.Fields{"user_id": callerID, "business_id": businessID}).Info("business followed")
	return nil
}

// Unfollow removes the follow of callerID on businessID.
func (s *Follows) Unfollow(ctx context.Context, callerID, businessID string) error {
	if callerID == "" {
		return newError(KindAuthorization, "User must be logged in to unfollow a business.")
	}
	if businessID == "" {
		return newError(KindValidation, "Please specify the ID of the business you would like to unfollow.")
	}

	err := s.follows.DeleteFollow(ctx, callerID, businessID)
	if errors.Is(err, storage.ErrNotFound) {
		return newError(KindNotFound, "In order to unfollow a business you must be following it.")
	}
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}

	log.WithFields(log.Fields{"user_id": callerID, "business_id": businessID}).Info("business unfollowed")
	return nil
}

func (s *Follows) IsFollowing(ctx context.Context, callerID, businessID string) (bool, error) {
	if callerID == "" {
		return false, newError(KindAuthorization, "User must be logged in to make a get request.")
	}
	if businessID == "" {
		return false, newError(KindValidation, "Must specify a business ID.")
	}

	following, err := s.follows.FollowExists(ctx, callerID, businessID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return following, nil
}

func (s *Follows) ListFollows(ctx context.Context, f FollowFilter) ([]models.Follow, error) {
	if (f.UserID == nil) == (f.BusinessID == nil) {
		return nil, newError(KindValidation, "Must specify either businessId or userId, but not both.")
	}

	var q storage.FollowQuery
	if f.UserID != nil {
		q.UserID = *f.UserID
	} else {
		q.BusinessID = *f.BusinessID
	}
	// an empty id would otherwise match every follow
	if q.UserID == "" && q.BusinessID == "" {
		return []models.Follow{}, nil
	}

	follows, err := s.follows.ListFollows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	return follows, nil
}

func (s *Follows) businessExists(ctx context.Context, businessID string) (bool, error) {
	p, err := s.profiles.GetProfile(ctx, businessID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get business: %w", err)
	}
	return p.IsBusiness, nil
}
