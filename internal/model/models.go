package model

import "time"

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleSchool  = "school"
)

// Post types
const (
	PostTypeRegular       = "regular"
	PostTypeBookWorksheet = "book_worksheet"
	PostTypeVideo         = "video"
)

// Media types attached to posts
const (
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeDocument = "document"
)

// Resource types
const (
	ResourceTypeBook      = "book"
	ResourceTypeWorksheet = "worksheet"
	ResourceTypeVideo     = "video"
)

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleSchool:
		return true
	}
	return false
}

// ValidPostType reports whether t is a known post type.
func ValidPostType(t string) bool {
	switch t {
	case PostTypeRegular, PostTypeBookWorksheet, PostTypeVideo:
		return true
	}
	return false
}

// ValidResourceType reports whether t is a known resource type.
func ValidResourceType(t string) bool {
	switch t {
	case ResourceTypeBook, ResourceTypeWorksheet, ResourceTypeVideo:
		return true
	}
	return false
}

// User is a registered member of the community. Password holds the
// bcrypt hash and is never serialized.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	FullName       string    `json:"fullName"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	SchoolName     string    `json:"schoolName,omitempty"`
	Age            int       `json:"age,omitempty"`
	Grade          string    `json:"grade,omitempty"`
	Address        string    `json:"address,omitempty"`
	TeachingGrades string    `json:"teachingGrades,omitempty"`
	CEOName        string    `json:"ceoName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserUpdate carries a partial profile update. Nil fields are left
// untouched by the store.
type UserUpdate struct {
	FullName       *string `json:"fullName,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	SchoolName     *string `json:"schoolName,omitempty"`
	Age            *int    `json:"age,omitempty"`
	Grade          *string `json:"grade,omitempty"`
	Address        *string `json:"address,omitempty"`
	TeachingGrades *string `json:"teachingGrades,omitempty"`
	CEOName        *string `json:"ceoName,omitempty"`
}

type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	MediaType string    `json:"mediaType,omitempty"`
	PostType  string    `json:"postType"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostUpdate carries a partial post update.
type PostUpdate struct {
	Content   *string `json:"content,omitempty"`
	MediaURL  *string `json:"mediaUrl,omitempty"`
	MediaType *string `json:"mediaType,omitempty"`
	PostType  *string `json:"postType,omitempty"`
}

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"postId"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Like struct {
	ID        int       `json:"id"`
	PostID    int       `json:"postId"`
	UserID    int       `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"senderId"`
	ReceiverID int       `json:"receiverId"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Resource struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PostWithUser is a feed entry: the post joined with its owner and
// denormalized counters. Shares are not tracked, so SharesCount is
// always zero.
type PostWithUser struct {
	Post
	User          *User `json:"user"`
	LikesCount    int   `json:"likesCount"`
	CommentsCount int   `json:"commentsCount"`
	SharesCount   int   `json:"sharesCount"`
	Liked         bool  `json:"liked"`
}

// CommentWithUser is a comment joined with its author.
type CommentWithUser struct {
	Comment
	User *User `json:"user"`
}

// ResourceWithUser is a resource joined with its uploader.
type ResourceWithUser struct {
	Resource
	User *User `json:"user"`
}

// ConversationSummary is one entry of the conversation list: the
// partner, how many of their messages are still unread, and the most
// recent message either way.
type ConversationSummary struct {
	PartnerID   int      `json:"partnerId"`
	Partner     *User    `json:"partner"`
	UnreadCount int      `json:"unreadCount"`
	LastMessage *Message `json:"lastMessage"`
}
