package store

import (
	"context"
	"fmt"

	"github.com/eduhub/eduhub-backend/internal/model"
)

// Seed populates a fresh store with a small sample community so a dev
// environment has something to render. Passwords are already-hashed
// values supplied by the caller.
func Seed(ctx context.Context, s Storage, passwordHash string) error {
	teacher, err := s.CreateUser(ctx, model.User{
		Email:          "maria.lopez@eduhub.dev",
		Password:       passwordHash,
		FullName:       "Maria Lopez",
		Phone:          "555-010-0001",
		Role:           model.RoleTeacher,
		SchoolName:     "Riverside High",
		TeachingGrades: "9th, 10th",
		Address:        "12 River St",
	})
	if err != nil {
		return fmt.Errorf("seed teacher: %w", err)
	}

	student, err := s.CreateUser(ctx, model.User{
		Email:      "devon.carter@eduhub.dev",
		Password:   passwordHash,
		FullName:   "Devon Carter",
		Phone:      "555-010-0002",
		Role:       model.RoleStudent,
		SchoolName: "Riverside High",
		Age:        16,
		Grade:      "10th",
		Address:    "48 Hill Ave",
	})
	if err != nil {
		return fmt.Errorf("seed student: %w", err)
	}

	post, err := s.CreatePost(ctx, model.Post{
		UserID:   teacher.ID,
		Content:  "Uploaded a fresh set of algebra worksheets for next week.",
		PostType: model.PostTypeBookWorksheet,
	})
	if err != nil {
		return fmt.Errorf("seed post: %w", err)
	}
	if _, err := s.CreatePost(ctx, model.Post{
		UserID:  student.ID,
		Content: "Anyone up for a study group before Friday's quiz?",
	}); err != nil {
		return fmt.Errorf("seed post: %w", err)
	}

	if _, err := s.CreateComment(ctx, model.Comment{
		PostID:  post.ID,
		UserID:  student.ID,
		Content: "These look great, thanks!",
	}); err != nil {
		return fmt.Errorf("seed comment: %w", err)
	}
	if _, err := s.CreateLike(ctx, model.Like{PostID: post.ID, UserID: student.ID}); err != nil {
		return fmt.Errorf("seed like: %w", err)
	}

	resources := []model.Resource{
		{
			UserID:      teacher.ID,
			Title:       "Algebra I Worksheet Pack",
			Description: "Practice problems covering linear equations.",
			Type:        model.ResourceTypeWorksheet,
			URL:         "https://files.eduhub.dev/worksheets/algebra-1.pdf",
		},
		{
			UserID:      teacher.ID,
			Title:       "Introduction to Fractions",
			Description: "A 12-minute refresher lesson.",
			Type:        model.ResourceTypeVideo,
			URL:         "https://files.eduhub.dev/videos/fractions-intro.mp4",
		},
		{
			UserID: teacher.ID,
			Title:  "Geometry Essentials",
			Type:   model.ResourceTypeBook,
			URL:    "https://files.eduhub.dev/books/geometry-essentials.pdf",
		},
	}
	for _, r := range resources {
		if _, err := s.CreateResource(ctx, r); err != nil {
			return fmt.Errorf("seed resource: %w", err)
		}
	}

	if _, err := s.CreateMessage(ctx, model.Message{
		SenderID:   teacher.ID,
		ReceiverID: student.ID,
		Content:    "Don't forget the worksheet pack is due Friday.",
	}); err != nil {
		return fmt.Errorf("seed message: %w", err)
	}

	return nil
}
