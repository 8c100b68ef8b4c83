package service

import (
	"context"

	"yatube/internal/guard"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
)

// FollowService maintains the reader-to-author subscription graph.
type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewFollowService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *FollowService {
	return &FollowService{userRepo: userRepo, followRepo: followRepo}
}

// Follow subscribes actor to username. Following yourself or following twice changes nothing.
func (s *FollowService) Follow(ctx context.Context, actor *models.User, username string) error {
	if err := guard.Check(guard.Follow, actor, 0).Err(); err != nil {
		return err
	}
	author, err := resolveAuthor(ctx, s.userRepo, username)
	if err != nil {
		return err
	}
	if author.ID == actor.ID {
		return nil
	}

	created, err := s.followRepo.Create(ctx, actor.ID, author.ID)
	if err != nil {
		return err
	}
	if created {
		middleware.Logger.InfoContext(ctx, "follow created", "user_id", actor.ID, "author_id", author.ID)
	}
	return nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, actor *models.User, username string) error {
	if err := guard.Check(guard.Unfollow, actor, 0).Err(); err != nil {
		return err
	}
	author, err := resolveAuthor(ctx, s.userRepo, username)
	if err != nil {
		return err
	}
	_, err = s.followRepo.Delete(ctx, actor.ID, author.ID)
	return err
}
