package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eduhub/eduhub-backend/internal/model"
)

// MemStore implements Storage with per-entity maps guarded by a single
// RWMutex. IDs are monotonically increasing per entity type and never
// reused. All returned pointers are copies; callers cannot mutate
// stored state through them.
type MemStore struct {
	mu sync.RWMutex

	users     map[int]model.User
	posts     map[int]model.Post
	comments  map[int]model.Comment
	likes     map[int]model.Like
	messages  map[int]model.Message
	resources map[int]model.Resource

	nextUserID     int
	nextPostID     int
	nextCommentID  int
	nextLikeID     int
	nextMessageID  int
	nextResourceID int

	now func() time.Time
}

var _ Storage = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:          make(map[int]model.User),
		posts:          make(map[int]model.Post),
		comments:       make(map[int]model.Comment),
		likes:          make(map[int]model.Like),
		messages:       make(map[int]model.Message),
		resources:      make(map[int]model.Resource),
		nextUserID:     1,
		nextPostID:     1,
		nextCommentID:  1,
		nextLikeID:     1,
		nextMessageID:  1,
		nextResourceID: 1,
		now:            time.Now,
	}
}

// Users

func (s *MemStore) GetUser(ctx context.Context, id int) *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (s *MemStore) userLocked(id int) *model.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u
		}
	}
	return nil
}

func (s *MemStore) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = s.nextUserID
	s.nextUserID++
	u.CreatedAt = s.now()
	u.ProfilePicture = ""
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemStore) UpdateUser(ctx context.Context, id int, upd model.UserUpdate) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	if upd.SchoolName != nil {
		u.SchoolName = *upd.SchoolName
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.Grade != nil {
		u.Grade = *upd.Grade
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.TeachingGrades != nil {
		u.TeachingGrades = *upd.TeachingGrades
	}
	if upd.CEOName != nil {
		u.CEOName = *upd.CEOName
	}
	s.users[id] = u
	return &u
}

// Posts

func (s *MemStore) GetPost(ctx context.Context, id int) *model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil
	}
	return &p
}

func (s *MemStore) GetPosts(ctx context.Context) []model.PostWithUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PostWithUser, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, s.joinPostLocked(p))
	}
	sortPostsNewestFirst(out)
	return out
}

func (s *MemStore) GetUserPosts(ctx context.Context, userID int) []model.PostWithUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PostWithUser, 0)
	for _, p := range s.posts {
		if p.UserID != userID {
			continue
		}
		out = append(out, s.joinPostLocked(p))
	}
	sortPostsNewestFirst(out)
	return out
}

func (s *MemStore) joinPostLocked(p model.Post) model.PostWithUser {
	likes, comments := 0, 0
	for _, l := range s.likes {
		if l.PostID == p.ID {
			likes++
		}
	}
	for _, c := range s.comments {
		if c.PostID == p.ID {
			comments++
		}
	}
	return model.PostWithUser{
		Post:          p,
		User:          s.userLocked(p.UserID),
		LikesCount:    likes,
		CommentsCount: comments,
		SharesCount:   0,
	}
}

func sortPostsNewestFirst(posts []model.PostWithUser) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func (s *MemStore) CreatePost(ctx context.Context, p model.Post) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextPostID
	s.nextPostID++
	p.CreatedAt = s.now()
	if p.PostType == "" {
		p.PostType = model.PostTypeRegular
	}
	s.posts[p.ID] = p
	return &p, nil
}

func (s *MemStore) UpdatePost(ctx context.Context, id int, upd model.PostUpdate) *model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	if upd.MediaURL != nil {
		p.MediaURL = *upd.MediaURL
	}
	if upd.MediaType != nil {
		p.MediaType = *upd.MediaType
	}
	if upd.PostType != nil {
		p.PostType = *upd.PostType
	}
	s.posts[id] = p
	return &p
}

func (s *MemStore) DeletePost(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Comments and likes that reference the post are left behind.
	// There is no cascade.
	if _, ok := s.posts[id]; !ok {
		return false
	}
	delete(s.posts, id)
	return true
}

// Comments

func (s *MemStore) GetPostComments(ctx context.Context, postID int) []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) CreateComment(ctx context.Context, c model.Comment) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextCommentID
	s.nextCommentID++
	c.CreatedAt = s.now()
	s.comments[c.ID] = c
	return &c, nil
}

func (s *MemStore) DeleteComment(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return false
	}
	delete(s.comments, id)
	return true
}

// Likes

func (s *MemStore) GetPostLikes(ctx context.Context, postID int) []model.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Like, 0)
	for _, l := range s.likes {
		if l.PostID == postID {
			out = append(out, l)
		}
	}
	return out
}

func (s *MemStore) GetLike(ctx context.Context, postID, userID int) *model.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.likeLocked(postID, userID)
}

func (s *MemStore) likeLocked(postID, userID int) *model.Like {
	for _, l := range s.likes {
		if l.PostID == postID && l.UserID == userID {
			l := l
			return &l
		}
	}
	return nil
}

func (s *MemStore) CreateLike(ctx context.Context, l model.Like) (*model.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// At most one like per (post, user): hand back the existing record
	// instead of creating a duplicate.
	if existing := s.likeLocked(l.PostID, l.UserID); existing != nil {
		return existing, nil
	}

	l.ID = s.nextLikeID
	s.nextLikeID++
	l.CreatedAt = s.now()
	s.likes[l.ID] = l
	return &l, nil
}

func (s *MemStore) DeleteLike(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.likes[id]; !ok {
		return false
	}
	delete(s.likes, id)
	return true
}

// Messages

func (s *MemStore) GetUserMessages(ctx context.Context, userID int) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Message, 0)
	for _, m := range s.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out
}

func (s *MemStore) GetConversation(ctx context.Context, userAID, userBID int) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Message, 0)
	for _, m := range s.messages {
		if (m.SenderID == userAID && m.ReceiverID == userBID) ||
			(m.SenderID == userBID && m.ReceiverID == userAID) {
			out = append(out, m)
		}
	}
	// A conversation reads chronologically, oldest first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemStore) CreateMessage(ctx context.Context, m model.Message) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextMessageID
	s.nextMessageID++
	m.CreatedAt = s.now()
	m.IsRead = false
	s.messages[m.ID] = m
	return &m, nil
}

func (s *MemStore) MarkMessageAsRead(ctx context.Context, id int) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil
	}
	m.IsRead = true
	s.messages[id] = m
	return &m
}

// Resources

func (s *MemStore) GetResource(ctx context.Context, id int) *model.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[id]
	if !ok {
		return nil
	}
	return &r
}

func (s *MemStore) GetResources(ctx context.Context) []model.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) GetResourcesByType(ctx context.Context, typ string) []model.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Resource, 0)
	for _, r := range s.resources {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) CreateResource(ctx context.Context, r model.Resource) (*model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextResourceID
	s.nextResourceID++
	r.CreatedAt = s.now()
	s.resources[r.ID] = r
	return &r, nil
}

func (s *MemStore) DeleteResource(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[id]; !ok {
		return false
	}
	delete(s.resources, id)
	return true
}
