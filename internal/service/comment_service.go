package service

import (
	"context"
	"strings"

	"yatube/internal/guard"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type AddCommentInput struct {
	Actor    *models.User
	Username string
	PostID   uint
	Text     string
}

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// Add attaches a comment to the post identified by author username and post id.
func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if err := guard.Check(guard.AddComment, in.Actor, 0).Err(); err != nil {
		return nil, err
	}
	author, err := resolveAuthor(ctx, s.userRepo, in.Username)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByAuthorAndID(ctx, author.ID, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateText(in.Text); err != nil {
		return nil, models.NewFieldError("text", err.Error())
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: in.Actor.ID,
		Text:     strings.TrimSpace(in.Text),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *in.Actor
	return comment, nil
}
