package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/guard"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

const invalidGroupMessage = "Select a valid choice. That choice is not one of the available choices."

// PostForm is the user-editable part of a post.
type PostForm struct {
	Text    string
	GroupID *uint
	// Image holds a newly uploaded file, if any.
	Image []byte
	// ClearImage drops the current image when no new one is uploaded.
	ClearImage bool
}

type CreatePostInput struct {
	Author *models.User
	PostForm
}

type EditPostInput struct {
	Actor    *models.User
	Username string
	PostID   uint
	PostForm
}

// PostView is everything the single post page shows.
type PostView struct {
	Post        *models.Post     `json:"post"`
	Author      *models.User     `json:"author"`
	Stats       AuthorStats      `json:"stats"`
	Comments    []models.Comment `json:"comments"`
	IsFollowing bool             `json:"is_following"`
	CanEdit     bool             `json:"can_edit"`
}

type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	images      ImageStore
	pages       cache.PageCache
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	followRepo repository.FollowRepository,
	images ImageStore,
	pages cache.PageCache,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		images:      images,
		pages:       pages,
	}
}

// validate checks every field and reports all problems at once.
func (s *PostService) validate(ctx context.Context, form PostForm) error {
	invalid := models.NewValidationError("Please correct the errors below.")

	if err := validation.ValidateText(form.Text); err != nil {
		invalid.WithField("text", err.Error())
	}
	if form.GroupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *form.GroupID); err != nil {
			if !models.HasCode(err, models.CodeNotFound) {
				return err
			}
			invalid.WithField("group", invalidGroupMessage)
		}
	}
	if len(form.Image) > 0 {
		if _, _, err := DecodeImage(form.Image); err != nil {
			for field, msg := range models.FieldErrors(err) {
				invalid.WithField(field, msg)
			}
		}
	}

	if len(invalid.Fields) > 0 {
		return invalid
	}
	return nil
}

func (s *PostService) storeImage(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	if s.images == nil {
		return "", models.NewInternalError(errors.New("image storage is not configured"))
	}
	return s.images.Save(ctx, content)
}

func (s *PostService) invalidateIndex(ctx context.Context) {
	if s.pages == nil {
		return
	}
	if err := s.pages.Invalidate(ctx, cache.IndexPagePrefix); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to invalidate index cache", "error", err)
	}
}

// Create publishes a new post. Nothing is stored unless every field is valid.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "post.create")
	defer func() { finish(err) }()

	if err := guard.Check(guard.CreatePost, in.Author, 0).Err(); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in.PostForm); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	post = &models.Post{
		Text:     strings.TrimSpace(in.Text),
		AuthorID: in.Author.ID,
		GroupID:  in.GroupID,
		Image:    image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if image != "" {
			s.images.Remove(image)
		}
		return nil, err
	}
	post.Author = *in.Author

	observability.PostsCreated.Inc()
	s.invalidateIndex(ctx)
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", post.AuthorID)
	return post, nil
}

// GetForEdit loads a post for its edit form, refusing anyone but its author.
func (s *PostService) GetForEdit(ctx context.Context, actor *models.User, username string, postID uint) (*models.Post, error) {
	if d := guard.Check(guard.EditPost, actor, 0); d == guard.Unauthorized {
		return nil, d.Err()
	}
	author, err := resolveAuthor(ctx, s.userRepo, username)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByAuthorAndID(ctx, author.ID, postID)
	if err != nil {
		return nil, err
	}
	if err := guard.Check(guard.EditPost, actor, post.AuthorID).Err(); err != nil {
		return nil, err
	}
	return post, nil
}

// Edit rewrites a post in place. Only its author may do so.
func (s *PostService) Edit(ctx context.Context, in EditPostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "post.edit")
	defer func() { finish(err) }()

	post, err = s.GetForEdit(ctx, in.Actor, in.Username, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in.PostForm); err != nil {
		return post, err
	}

	previous := post.Image
	image, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return post, err
	}
	switch {
	case image != "":
		post.Image = image
	case in.ClearImage:
		post.Image = ""
	}
	post.Text = strings.TrimSpace(in.Text)
	post.GroupID = in.GroupID

	if err := s.postRepo.Update(ctx, post); err != nil {
		if image != "" {
			s.images.Remove(image)
		}
		return nil, err
	}
	if previous != "" && previous != post.Image && s.images != nil {
		s.images.Remove(previous)
	}

	s.invalidateIndex(ctx)
	return post, nil
}

// View assembles the single post page. viewer may be nil.
func (s *PostService) View(ctx context.Context, username string, postID uint, viewer *models.User) (*PostView, error) {
	author, err := resolveAuthor(ctx, s.userRepo, username)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByAuthorAndID(ctx, author.ID, postID)
	if err != nil {
		return nil, err
	}
	stats, err := loadAuthorStats(ctx, s.followRepo, s.postRepo, author.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	following, err := isFollowing(ctx, s.followRepo, viewer, author.ID)
	if err != nil {
		return nil, err
	}

	return &PostView{
		Post:        post,
		Author:      author,
		Stats:       stats,
		Comments:    comments,
		IsFollowing: following,
		CanEdit:     guard.Check(guard.EditPost, viewer, post.AuthorID) == guard.Allowed,
	}, nil
}
