package service

import (
	"context"
	"time"

	"yatube/internal/cache"
	"yatube/internal/guard"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedPage is one page of posts, newest first.
type FeedPage = pagination.Page[models.Post]

type GroupFeed struct {
	Group *models.Group `json:"group"`
	Page  FeedPage      `json:"page"`
}

type AuthorFeed struct {
	Author      *models.User `json:"author"`
	Stats       AuthorStats  `json:"stats"`
	IsFollowing bool         `json:"is_following"`
	Page        FeedPage     `json:"page"`
}

// FeedService composes the paginated post listings.
type FeedService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
	pages       cache.PageCache
	pageSize    int
	indexTTL    time.Duration
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	commentRepo repository.CommentRepository,
	pages cache.PageCache,
	pageSize int,
	indexTTL time.Duration,
) *FeedService {
	if pageSize <= 0 {
		pageSize = pagination.DefaultSize
	}
	return &FeedService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		commentRepo: commentRepo,
		pages:       pages,
		pageSize:    pageSize,
		indexTTL:    indexTTL,
	}
}

func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, number int) (FeedPage, error) {
	return pagination.Query(ctx, pagination.Source[models.Post]{
		Count: func(ctx context.Context) (int64, error) {
			return s.postRepo.Count(ctx, filter)
		},
		Fetch: func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			posts, err := s.postRepo.List(ctx, filter, limit, offset)
			if err != nil {
				return nil, err
			}
			return posts, s.attachCommentCounts(ctx, posts)
		},
	}, s.pageSize, number)
}

// attachCommentCounts fills CommentCount for a page of posts with one grouped query.
func (s *FeedService) attachCommentCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	counts, err := s.commentRepo.CountByPost(ctx, ids...)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].CommentCount = counts[posts[i].ID]
	}
	return nil
}

// Global is every post on the site. Pages are served from the page cache for indexTTL.
func (s *FeedService) Global(ctx context.Context, number int) (page FeedPage, err error) {
	ctx, finish := observability.StartSpan(ctx, "feed.global", attribute.Int("page", number))
	defer func() { finish(err) }()

	if number < 1 {
		number = 1
	}
	// Only pages that exist are stored, so the key space is bounded by the post count.
	return cache.AsideIf(ctx, s.pages, cache.IndexPageKey(number), s.indexTTL, func() (FeedPage, error) {
		return s.page(ctx, repository.PostFilter{}, number)
	}, func(p FeedPage) bool {
		return p.Number == number
	})
}

func (s *FeedService) Group(ctx context.Context, slug string, number int) (feed *GroupFeed, err error) {
	ctx, finish := observability.StartSpan(ctx, "feed.group", attribute.String("slug", slug), attribute.Int("page", number))
	defer func() { finish(err) }()

	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	page, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, number)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: page}, nil
}

// Author lists one user's posts with their follower counters. viewer may be nil.
func (s *FeedService) Author(ctx context.Context, username string, number int, viewer *models.User) (feed *AuthorFeed, err error) {
	ctx, finish := observability.StartSpan(ctx, "feed.author", attribute.String("username", username), attribute.Int("page", number))
	defer func() { finish(err) }()

	author, err := resolveAuthor(ctx, s.userRepo, username)
	if err != nil {
		return nil, err
	}
	stats, err := loadAuthorStats(ctx, s.followRepo, s.postRepo, author.ID)
	if err != nil {
		return nil, err
	}
	following, err := isFollowing(ctx, s.followRepo, viewer, author.ID)
	if err != nil {
		return nil, err
	}
	page, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, number)
	if err != nil {
		return nil, err
	}
	return &AuthorFeed{Author: author, Stats: stats, IsFollowing: following, Page: page}, nil
}

// Following lists posts by the authors viewer follows.
func (s *FeedService) Following(ctx context.Context, viewer *models.User, number int) (page FeedPage, err error) {
	ctx, finish := observability.StartSpan(ctx, "feed.following", attribute.Int("page", number))
	defer func() { finish(err) }()

	if err := guard.Check(guard.ViewFollowing, viewer, 0).Err(); err != nil {
		return FeedPage{}, err
	}
	return s.page(ctx, repository.PostFilter{FollowerID: viewer.ID}, number)
}
