package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/rbac"
	"github.com/projecthub/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCommentBodyEmpty   = errors.New("comment body cannot be empty")
	ErrNotCommentAuthor   = errors.New("Only the original author can edit this comment.")
	ErrParentCommentWrong = errors.New("parent comment does not belong to this task")
	ErrCommentTooDeep     = errors.New("replies to replies are not supported")
)

// CommentService provides business logic for task comments.
type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// CreateCommentInput represents parameters to post a comment.
type CreateCommentInput struct {
	TaskID          uint64
	Body            string
	ParentCommentID *uint64
	Author          rbac.Identity
}

// CreateComment posts a comment on a task. Threading is one level deep:
// a reply's parent must be a top-level comment on the same task.
func (s *CommentService) CreateComment(input CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, ErrCommentBodyEmpty
	}

	task, err := s.taskRepo.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureProjectMember(task.ProjectID, input.Author); err != nil {
		return nil, err
	}

	if input.ParentCommentID != nil {
		parent, err := s.commentRepo.FindByID(*input.ParentCommentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentNotFound
			}
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}
		if parent.TaskID != task.ID {
			return nil, ErrParentCommentWrong
		}
		if parent.ParentCommentID != nil {
			return nil, ErrCommentTooDeep
		}
	}

	comment := &models.Comment{
		TaskID:          task.ID,
		AuthorID:        input.Author.UserID,
		ParentCommentID: input.ParentCommentID,
		Body:            input.Body,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// EditComment replaces a comment's body. Author-only, no exceptions; comments
// are never deleted.
func (s *CommentService) EditComment(commentID uint64, body string, caller rbac.Identity) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrCommentBodyEmpty
	}

	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.AuthorID != caller.UserID {
		return nil, ErrNotCommentAuthor
	}

	comment.Body = body
	comment.Edited = true

	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// ListComments returns a task's comments oldest-first.
func (s *CommentService) ListComments(taskID uint64, caller rbac.Identity) ([]models.Comment, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureProjectMember(task.ProjectID, caller); err != nil {
		return nil, err
	}

	return s.commentRepo.ListByTask(taskID)
}

func (s *CommentService) ensureProjectMember(projectID uint64, caller rbac.Identity) error {
	if caller.GlobalRole == models.GlobalRoleAdmin {
		return nil
	}
	if _, err := s.projectRepo.FindMember(projectID, caller.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotProjectMember
		}
		return fmt.Errorf("failed to verify project membership: %w", err)
	}
	return nil
}
