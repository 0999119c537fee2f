// Package store is the authoritative in-memory source of truth for all
// EduHub entities. Absence is encoded in return values (nil pointers,
// false booleans), never as errors: a miss on a read or a write against
// an unknown id is an expected outcome the API layer turns into a 404.
package store

import (
	"context"

	"github.com/eduhub/eduhub-backend/internal/model"
)

// Storage exposes per-entity CRUD plus the cross-entity aggregate reads
// the feed and messaging endpoints compose. Implementations must behave
// atomically per call: a read started after a write completes sees the
// write in full.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id int) *model.User
	// GetUserByEmail compares case-insensitively. Email uniqueness is
	// the caller's responsibility to check before CreateUser; the store
	// only offers the lookup primitive.
	GetUserByEmail(ctx context.Context, email string) *model.User
	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	UpdateUser(ctx context.Context, id int, upd model.UserUpdate) *model.User

	// Posts
	GetPost(ctx context.Context, id int) *model.Post
	// GetPosts returns every post joined with its owner and counters,
	// newest first. Ties in createdAt are unordered.
	GetPosts(ctx context.Context) []model.PostWithUser
	GetUserPosts(ctx context.Context, userID int) []model.PostWithUser
	CreatePost(ctx context.Context, p model.Post) (*model.Post, error)
	UpdatePost(ctx context.Context, id int, upd model.PostUpdate) *model.Post
	DeletePost(ctx context.Context, id int) bool

	// Comments
	GetPostComments(ctx context.Context, postID int) []model.Comment
	CreateComment(ctx context.Context, c model.Comment) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int) bool

	// Likes
	GetPostLikes(ctx context.Context, postID int) []model.Like
	GetLike(ctx context.Context, postID, userID int) *model.Like
	// CreateLike is idempotent: a second like for the same
	// (postID, userID) pair returns the existing record unchanged.
	CreateLike(ctx context.Context, l model.Like) (*model.Like, error)
	DeleteLike(ctx context.Context, id int) bool

	// Messages
	GetUserMessages(ctx context.Context, userID int) []model.Message
	// GetConversation returns the messages exchanged between exactly
	// that pair in either direction, oldest first.
	GetConversation(ctx context.Context, userAID, userBID int) []model.Message
	// CreateMessage forces IsRead to false regardless of input.
	CreateMessage(ctx context.Context, m model.Message) (*model.Message, error)
	// MarkMessageAsRead is idempotent; IsRead never reverts to false.
	MarkMessageAsRead(ctx context.Context, id int) *model.Message

	// Resources
	GetResource(ctx context.Context, id int) *model.Resource
	GetResources(ctx context.Context) []model.Resource
	GetResourcesByType(ctx context.Context, typ string) []model.Resource
	CreateResource(ctx context.Context, r model.Resource) (*model.Resource, error)
	DeleteResource(ctx context.Context, id int) bool
}
