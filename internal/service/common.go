// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/repository"

	"golang.org/x/sync/errgroup"
)

// AuthorStats are the counters shown next to an author's name.
type AuthorStats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Posts     int64 `json:"posts"`
}

func resolveAuthor(ctx context.Context, users repository.UserRepository, username string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

func loadAuthorStats(ctx context.Context, follows repository.FollowRepository, posts repository.PostRepository, authorID uint) (AuthorStats, error) {
	var stats AuthorStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Followers, err = follows.CountFollowers(gctx, authorID)
		return err
	})
	g.Go(func() (err error) {
		stats.Following, err = follows.CountFollowing(gctx, authorID)
		return err
	})
	g.Go(func() (err error) {
		stats.Posts, err = posts.Count(gctx, repository.PostFilter{AuthorID: authorID})
		return err
	})
	if err := g.Wait(); err != nil {
		return AuthorStats{}, err
	}
	return stats, nil
}

// isFollowing is false for anonymous viewers and for authors looking at themselves.
func isFollowing(ctx context.Context, follows repository.FollowRepository, viewer *models.User, authorID uint) (bool, error) {
	if viewer == nil || viewer.ID == authorID {
		return false, nil
	}
	return follows.Exists(ctx, viewer.ID, authorID)
}
