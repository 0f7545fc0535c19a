package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStorage runs the behaviour every backend must share.
func testStorage(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Run("GetComment_NotFound", func(t *testing.T) {
		s := newStorage(t)
		c, err := s.GetComment(context.Background(), "nonexistent-id")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, c)
	})

	t.Run("AddComment_Root", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		in := models.Comment{ID: "c1", Content: "Nice", Timestamp: 10, UserID: "u1", BusinessID: "b1"}
		require.NoError(t, s.AddComment(ctx, in))

		c, err := s.GetComment(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, in, *c)
	})

	t.Run("AddComment_ReplyFlagsParent", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		require.NoError(t, s.AddComment(ctx, models.Comment{ID: "c1", Content: "root", Timestamp: 1, UserID: "u1", BusinessID: "b1"}))
		require.NoError(t, s.AddComment(ctx, models.Comment{ID: "c2", Content: "reply", Timestamp: 2, UserID: "u2", BusinessID: "b1", ParentID: "c1"}))

		parent, err := s.GetComment(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, parent.HasReplies)

		reply, err := s.GetComment(ctx, "c2")
		require.NoError(t, err)
		assert.False(t, reply.HasReplies)
	})

	t.Run("AddComment_MissingParent", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		err := s.AddComment(ctx, models.Comment{ID: "c2", Content: "reply", UserID: "u2", BusinessID: "b1", ParentID: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetComment(ctx, "c2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AddComment_ParentOnOtherBusiness", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		require.NoError(t, s.AddComment(ctx, models.Comment{ID: "c1", Content: "root", Timestamp: 1, UserID: "u1", BusinessID: "b2"}))

		err := s.AddComment(ctx, models.Comment{ID: "c2", Content: "reply", Timestamp: 2, UserID: "u2", BusinessID: "b1", ParentID: "c1"})
		assert.ErrorIs(t, err, ErrParentMismatch)

		_, err = s.GetComment(ctx, "c2")
		assert.ErrorIs(t, err, ErrNotFound)
		parent, err := s.GetComment(ctx, "c1")
		require.NoError(t, err)
		assert.False(t, parent.HasReplies)
	})

	t.Run("ListComments", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		for _, c := range []models.Comment{
			{ID: "r0", Timestamp: 0, UserID: "0", BusinessID: "B0"},
			{ID: "a1", Timestamp: 1, UserID: "0", BusinessID: "B0", ParentID: "r0"},
			{ID: "a2", Timestamp: 2, UserID: "0", BusinessID: "B0", ParentID: "r0"},
			{ID: "r3", Timestamp: 3, UserID: "1", BusinessID: "B0"},
			{ID: "b4", Timestamp: 3, UserID: "1", BusinessID: "B0"},
			{ID: "x9", Timestamp: 9, UserID: "1", BusinessID: "B1"},
		} {
			c.Content = "comment " + c.ID
			require.NoError(t, s.AddComment(ctx, c))
		}

		roots, err := s.ListComments(ctx, CommentQuery{Field: CommentsByBusiness, Value: "B0", RootsOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"b4", "r3", "r0"}, commentIDs(roots))

		all, err := s.ListComments(ctx, CommentQuery{Field: CommentsByBusiness, Value: "B0"})
		require.NoError(t, err)
		assert.Len(t, all, 5)

		replies, err := s.ListComments(ctx, CommentQuery{Field: CommentsByParent, Value: "r0"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a2", "a1"}, commentIDs(replies))

		byUser, err := s.ListComments(ctx, CommentQuery{Field: CommentsByUser, Value: "1", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"x9", "b4"}, commentIDs(byUser))

		none, err := s.ListComments(ctx, CommentQuery{Field: CommentsByUser, Value: "nobody"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("SubscribeToComments", func(t *testing.T) {
		s := newStorage(t)
		ctx, cancel := context.WithCancel(context.Background())
		ch, err := s.SubscribeToComments(ctx, "b1")
		require.NoError(t, err)

		require.NoError(t, s.AddComment(ctx, models.Comment{ID: "other", Content: "x", UserID: "u1", BusinessID: "b2"}))
		require.NoError(t, s.AddComment(ctx, models.Comment{ID: "mine", Content: "y", UserID: "u1", BusinessID: "b1"}))

		select {
		case c := <-ch:
			assert.Equal(t, "mine", c.ID)
		case <-time.After(time.Second):
			t.Fatal("Timeout waiting for comment")
		}

		cancel()
		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})

	t.Run("Follows", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.AddFollow(ctx, models.Follow{ID: "f1", UserID: "1", BusinessID: "4"}))
		require.NoError(t, s.AddFollow(ctx, models.Follow{ID: "f2", UserID: "1", BusinessID: "5"}))
		require.NoError(t, s.AddFollow(ctx, models.Follow{ID: "f3", UserID: "2", BusinessID: "4"}))
		assert.ErrorIs(t, s.AddFollow(ctx, models.Follow{ID: "f4", UserID: "1", BusinessID: "4"}), ErrDuplicate)

		exists, err := s.FollowExists(ctx, "1", "4")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = s.FollowExists(ctx, "2", "5")
		require.NoError(t, err)
		assert.False(t, exists)

		followers, err := s.ListFollows(ctx, FollowQuery{BusinessID: "4"})
		require.NoError(t, err)
		assert.Equal(t, []models.Follow{{ID: "f1", UserID: "1", BusinessID: "4"}, {ID: "f3", UserID: "2", BusinessID: "4"}}, followers)

		none, err := s.ListFollows(ctx, FollowQuery{BusinessID: "6"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		require.NoError(t, s.DeleteFollow(ctx, "1", "4"))
		assert.ErrorIs(t, s.DeleteFollow(ctx, "1", "4"), ErrNotFound)

		byUser, err := s.ListFollows(ctx, FollowQuery{UserID: "1"})
		require.NoError(t, err)
		assert.Equal(t, []models.Follow{{ID: "f2", UserID: "1", BusinessID: "5"}}, byUser)
	})

	t.Run("AddFollow_Concurrent", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		const attempts = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.AddFollow(ctx, models.Follow{ID: "f" + string(rune('a'+i)), UserID: "u1", BusinessID: "b1"})
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrDuplicate)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("AddFollow_DeleteFollow_Concurrent", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		const rounds = 8
		var wg sync.WaitGroup
		for i := 0; i < rounds; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				err := s.AddFollow(ctx, models.Follow{ID: "f" + string(rune('a'+i)), UserID: "u1", BusinessID: "b1"})
				if err != nil {
					assert.ErrorIs(t, err, ErrDuplicate)
				}
			}(i)
			go func() {
				defer wg.Done()
				err := s.DeleteFollow(ctx, "u1", "b1")
				if err != nil {
					assert.ErrorIs(t, err, ErrNotFound)
				}
			}()
		}
		wg.Wait()

		follows, err := s.ListFollows(ctx, FollowQuery{UserID: "u1"})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(follows), 1)
		exists, err := s.FollowExists(ctx, "u1", "b1")
		require.NoError(t, err)
		assert.Equal(t, len(follows) == 1, exists)
	})

	t.Run("Profiles", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		_, err := s.GetProfile(ctx, "u1")
		assert.ErrorIs(t, err, ErrNotFound)

		lat, lng := 59.9, 10.7
		business := models.Profile{ID: "b1", IsBusiness: true, Name: "Cafe", Story: "s", About: "a", Calendar: "c@example.com", Support: "x", Latitude: &lat, Longitude: &lng}
		require.NoError(t, s.SaveProfile(ctx, business))
		require.NoError(t, s.SaveProfile(ctx, models.Profile{ID: "u1", Name: "Alice"}))

		got, err := s.GetProfile(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, business, *got)

		user, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, user.Latitude)

		// upsert
		require.NoError(t, s.SaveProfile(ctx, models.Profile{ID: "u1", Name: "Alice B", Bio: "hi"}))
		user, err = s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Alice B", user.Name)
		assert.Equal(t, "hi", user.Bio)

		all, err := s.ListProfiles(ctx, ProfileQuery{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		businesses, err := s.ListProfiles(ctx, ProfileQuery{BusinessOnly: true})
		require.NoError(t, err)
		require.Len(t, businesses, 1)
		assert.Equal(t, "b1", businesses[0].ID)

		created, err := s.CreateProfileIfAbsent(ctx, models.Profile{ID: "u1", Name: models.AnonymousName})
		require.NoError(t, err)
		assert.False(t, created)
		created, err = s.CreateProfileIfAbsent(ctx, models.Profile{ID: "u2", Name: models.AnonymousName})
		require.NoError(t, err)
		assert.True(t, created)

		user, err = s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Alice B", user.Name)
	})
}

func commentIDs(comments []models.Comment) []string {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}
