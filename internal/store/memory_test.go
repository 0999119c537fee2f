package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-backend/internal/model"
)

// newTestStore returns a store whose clock advances one second per
// call, so createdAt ordering is deterministic.
func newTestStore() *MemStore {
	s := NewMemStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func createUser(t *testing.T, s *MemStore, email, role string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.User{
		Email:    email,
		Password: "hash",
		FullName: "Test User",
		Phone:    "555-0000",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestUserEmailLookupIsCaseInsensitive(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	created := createUser(t, s, "Foo@Bar.com", model.RoleStudent)

	found := s.GetUserByEmail(ctx, "foo@bar.com")
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	assert.Nil(t, s.GetUserByEmail(ctx, "nobody@bar.com"))
}

func TestUpdateUserMergesPartialFields(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleTeacher)

	name := "New Name"
	updated := s.UpdateUser(ctx, u.ID, model.UserUpdate{FullName: &name})
	require.NotNil(t, updated)
	assert.Equal(t, "New Name", updated.FullName)
	assert.Equal(t, u.Phone, updated.Phone)
	assert.Equal(t, u.Email, updated.Email)

	assert.Nil(t, s.UpdateUser(ctx, 999, model.UserUpdate{FullName: &name}))
}

func TestFeedIsOrderedNewestFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleStudent)
	for i := 0; i < 5; i++ {
		_, err := s.CreatePost(ctx, model.Post{UserID: u.ID, Content: "post"})
		require.NoError(t, err)
	}

	feed := s.GetPosts(ctx)
	require.Len(t, feed, 5)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt),
			"feed[%d] is newer than feed[%d]", i, i-1)
	}
}

func TestFeedJoinsUserAndCounts(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	author := createUser(t, s, "author@b.com", model.RoleTeacher)
	reader := createUser(t, s, "reader@b.com", model.RoleStudent)

	post, err := s.CreatePost(ctx, model.Post{UserID: author.ID, Content: "hello"})
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, model.Comment{PostID: post.ID, UserID: reader.ID, Content: "nice"})
	require.NoError(t, err)
	_, err = s.CreateLike(ctx, model.Like{PostID: post.ID, UserID: reader.ID})
	require.NoError(t, err)

	feed := s.GetPosts(ctx)
	require.Len(t, feed, 1)
	require.NotNil(t, feed[0].User)
	assert.Equal(t, author.ID, feed[0].User.ID)
	assert.Equal(t, 1, feed[0].LikesCount)
	assert.Equal(t, 1, feed[0].CommentsCount)
	assert.Equal(t, 0, feed[0].SharesCount)
}

func TestCreatePostDefaultsToRegularType(t *testing.T) {
	s := newTestStore()
	u := createUser(t, s, "a@b.com", model.RoleStudent)

	p, err := s.CreatePost(context.Background(), model.Post{UserID: u.ID, Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, model.PostTypeRegular, p.PostType)
}

func TestGetUserPostsFiltersByOwner(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a := createUser(t, s, "a@b.com", model.RoleStudent)
	b := createUser(t, s, "b@b.com", model.RoleStudent)

	for i := 0; i < 3; i++ {
		_, err := s.CreatePost(ctx, model.Post{UserID: a.ID, Content: "a"})
		require.NoError(t, err)
	}
	_, err := s.CreatePost(ctx, model.Post{UserID: b.ID, Content: "b"})
	require.NoError(t, err)

	posts := s.GetUserPosts(ctx, a.ID)
	require.Len(t, posts, 3)
	for _, p := range posts {
		assert.Equal(t, a.ID, p.UserID)
	}
}

func TestDeletePostReportsExistence(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleStudent)
	p, err := s.CreatePost(ctx, model.Post{UserID: u.ID, Content: "x"})
	require.NoError(t, err)

	assert.True(t, s.DeletePost(ctx, p.ID))
	assert.False(t, s.DeletePost(ctx, p.ID))
	assert.Nil(t, s.GetPost(ctx, p.ID))
}

func TestDeletePostLeavesOrphanedCommentsAndLikes(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleStudent)
	p, err := s.CreatePost(ctx, model.Post{UserID: u.ID, Content: "x"})
	require.NoError(t, err)
	c, err := s.CreateComment(ctx, model.Comment{PostID: p.ID, UserID: u.ID, Content: "c"})
	require.NoError(t, err)
	l, err := s.CreateLike(ctx, model.Like{PostID: p.ID, UserID: u.ID})
	require.NoError(t, err)

	require.True(t, s.DeletePost(ctx, p.ID))

	// No cascade: the comment and like survive their post.
	comments := s.GetPostComments(ctx, p.ID)
	require.Len(t, comments, 1)
	assert.Equal(t, c.ID, comments[0].ID)
	likes := s.GetPostLikes(ctx, p.ID)
	require.Len(t, likes, 1)
	assert.Equal(t, l.ID, likes[0].ID)
}

func TestCreateLikeIsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleStudent)
	p, err := s.CreatePost(ctx, model.Post{UserID: u.ID, Content: "x"})
	require.NoError(t, err)

	first, err := s.CreateLike(ctx, model.Like{PostID: p.ID, UserID: u.ID})
	require.NoError(t, err)
	second, err := s.CreateLike(ctx, model.Like{PostID: p.ID, UserID: u.ID})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, s.GetPostLikes(ctx, p.ID), 1)

	require.NotNil(t, s.GetLike(ctx, p.ID, u.ID))
	assert.True(t, s.DeleteLike(ctx, first.ID))
	assert.Nil(t, s.GetLike(ctx, p.ID, u.ID))
	assert.False(t, s.DeleteLike(ctx, first.ID))
}

func TestConversationIsOrderedOldestFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a := createUser(t, s, "a@b.com", model.RoleStudent)
	b := createUser(t, s, "b@b.com", model.RoleTeacher)
	c := createUser(t, s, "c@b.com", model.RoleStudent)

	for i := 0; i < 3; i++ {
		_, err := s.CreateMessage(ctx, model.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "a->b"})
		require.NoError(t, err)
		_, err = s.CreateMessage(ctx, model.Message{SenderID: b.ID, ReceiverID: a.ID, Content: "b->a"})
		require.NoError(t, err)
	}
	// Noise from an unrelated pair must not leak in.
	_, err := s.CreateMessage(ctx, model.Message{SenderID: a.ID, ReceiverID: c.ID, Content: "a->c"})
	require.NoError(t, err)

	conv := s.GetConversation(ctx, a.ID, b.ID)
	require.Len(t, conv, 6)
	for i := 1; i < len(conv); i++ {
		assert.False(t, conv[i].CreatedAt.Before(conv[i-1].CreatedAt),
			"conv[%d] is older than conv[%d]", i, i-1)
	}
	// Both directions see the same conversation.
	assert.Equal(t, conv, s.GetConversation(ctx, b.ID, a.ID))
}

func TestMessageReadFlagIsOneWay(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a := createUser(t, s, "a@b.com", model.RoleStudent)
	b := createUser(t, s, "b@b.com", model.RoleTeacher)

	m, err := s.CreateMessage(ctx, model.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "hi", IsRead: true})
	require.NoError(t, err)
	// IsRead is forced false at creation regardless of input.
	assert.False(t, m.IsRead)

	read := s.MarkMessageAsRead(ctx, m.ID)
	require.NotNil(t, read)
	assert.True(t, read.IsRead)

	// Marking again is a no-op that still returns the record.
	again := s.MarkMessageAsRead(ctx, m.ID)
	require.NotNil(t, again)
	assert.True(t, again.IsRead)

	assert.Nil(t, s.MarkMessageAsRead(ctx, 999))
}

func TestGetUserMessagesIncludesBothDirections(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a := createUser(t, s, "a@b.com", model.RoleStudent)
	b := createUser(t, s, "b@b.com", model.RoleTeacher)
	c := createUser(t, s, "c@b.com", model.RoleStudent)

	_, err := s.CreateMessage(ctx, model.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "1"})
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, model.Message{SenderID: c.ID, ReceiverID: a.ID, Content: "2"})
	require.NoError(t, err)
	_, err = s.CreateMessage(ctx, model.Message{SenderID: b.ID, ReceiverID: c.ID, Content: "3"})
	require.NoError(t, err)

	assert.Len(t, s.GetUserMessages(ctx, a.ID), 2)
	assert.Len(t, s.GetUserMessages(ctx, b.ID), 2)
}

func TestResourcesFilterByType(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleTeacher)
	types := []string{model.ResourceTypeBook, model.ResourceTypeWorksheet, model.ResourceTypeVideo, model.ResourceTypeVideo}
	for _, typ := range types {
		_, err := s.CreateResource(ctx, model.Resource{UserID: u.ID, Title: "r", Type: typ, URL: "https://x"})
		require.NoError(t, err)
	}

	assert.Len(t, s.GetResources(ctx), 4)
	assert.Len(t, s.GetResourcesByType(ctx, model.ResourceTypeVideo), 2)
	assert.Len(t, s.GetResourcesByType(ctx, model.ResourceTypeBook), 1)

	res := s.GetResourcesByType(ctx, model.ResourceTypeWorksheet)
	require.Len(t, res, 1)
	assert.True(t, s.DeleteResource(ctx, res[0].ID))
	assert.False(t, s.DeleteResource(ctx, res[0].ID))
}

func TestIDsAreMonotonicAndNeverReused(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	u := createUser(t, s, "a@b.com", model.RoleStudent)
	p1, err := s.CreatePost(ctx, model.Post{UserID: u.ID, Content: "1"})
	require.NoError(t, err)
	require.True(t, s.DeletePost(ctx, p1.ID))

	p2, err := s.CreatePost(ctx, model.Post{UserID: u.ID, Content: "2"})
	require.NoError(t, err)
	assert.Greater(t, p2.ID, p1.ID)
}

func TestSeedPopulatesDevData(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, s, "hash"))

	assert.NotNil(t, s.GetUserByEmail(ctx, "maria.lopez@eduhub.dev"))
	assert.NotEmpty(t, s.GetPosts(ctx))
	assert.NotEmpty(t, s.GetResources(ctx))
}
