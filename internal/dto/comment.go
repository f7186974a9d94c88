package dto

import (
	"time"

	"github.com/projecthub/project-management-api/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID              uint64    `json:"id"`
	TaskID          uint64    `json:"task_id"`
	AuthorID        uint64    `json:"author_id"`
	ParentCommentID *uint64   `json:"parent_comment_id"`
	Body            string    `json:"body"`
	Edited          bool      `json:"edited"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Author          *UserDTO  `json:"author,omitempty"`
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:              comment.ID,
		TaskID:          comment.TaskID,
		AuthorID:        comment.AuthorID,
		ParentCommentID: comment.ParentCommentID,
		Body:            comment.Body,
		Edited:          comment.Edited,
		CreatedAt:       comment.CreatedAt,
		UpdatedAt:       comment.UpdatedAt,
	}

	if comment.Author.ID != 0 {
		author := ToUserDTO(comment.Author)
		dto.Author = &author
	}

	return dto
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		dtos[i] = ToCommentDTO(comment)
	}
	return dtos
}
