package api

import "github.com/eduhub/eduhub-backend/internal/model"

// ErrorResponse is the error envelope every failing endpoint returns.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"fullName"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	SchoolName     string `json:"schoolName,omitempty"`
	Age            int    `json:"age,omitempty"`
	Grade          string `json:"grade,omitempty"`
	Address        string `json:"address,omitempty"`
	TeachingGrades string `json:"teachingGrades,omitempty"`
	CEOName        string `json:"ceoName,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type DemoRequest struct {
	Role string `json:"role"`
}

// AuthResponse is returned by register, login and demo. The token is
// also set as the edu_session cookie for browser clients.
type AuthResponse struct {
	Token  string      `json:"token"`
	IsDemo bool        `json:"isDemo,omitempty"`
	User   *model.User `json:"user"`
}

// CountdownDTO is the demo timer snapshot. TimeLeft is whole seconds,
// clamped at zero. IsExpiring latches true once the timer enters the
// warning window and never resets.
type CountdownDTO struct {
	TimeLeft   int  `json:"timeLeft"`
	IsExpiring bool `json:"isExpiring"`
}

type CreatePostRequest struct {
	Content   string `json:"content"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	PostType  string `json:"postType,omitempty"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

// LikeResponse reports the state after a like toggle.
type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type CreateResourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	URL         string `json:"url"`
}
