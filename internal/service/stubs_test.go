package service

import (
	"context"
	"errors"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn           func(context.Context, *models.Post) error
	updateFn           func(context.Context, *models.Post) error
	getByAuthorAndIDFn func(context.Context, uint, uint) (*models.Post, error)
	countFn            func(context.Context, repository.PostFilter) (int64, error)
	listFn             func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) GetByAuthorAndID(ctx context.Context, authorID, id uint) (*models.Post, error) {
	return s.getByAuthorAndIDFn(ctx, authorID, id)
}
func (s *postRepoStub) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	return s.countFn(ctx, filter)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { return nil },
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByAuthorAndIDFn: func(_ context.Context, _, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		},
		countFn: func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
		listFn:  func(_ context.Context, _ repository.PostFilter, _, _ int) ([]models.Post, error) { return nil, nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository backed by a map keyed by id.
type groupRepoStub struct {
	groups map[uint]*models.Group
}

func (s *groupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	if g, ok := s.groups[id]; ok {
		return g, nil
	}
	return nil, models.NewNotFoundError("Group", id)
}
func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	for _, g := range s.groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}
func (s *groupRepoStub) List(_ context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, *g)
	}
	return out, nil
}
func (s *groupRepoStub) Create(_ context.Context, g *models.Group) error {
	g.ID = uint(len(s.groups) + 1)
	s.groups[g.ID] = g
	return nil
}

// userRepoStub is an in-memory repository.UserRepository.
type userRepoStub struct {
	users     map[uint]*models.User
	createErr error
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) Create(_ context.Context, u *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	u.ID = uint(len(s.users) + 1)
	s.users[u.ID] = u
	return nil
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	existsFn func(context.Context, uint, uint) (bool, error)
}

func (s *followRepoStub) Create(_ context.Context, _, _ uint) (bool, error) { return true, nil }
func (s *followRepoStub) Delete(_ context.Context, _, _ uint) (bool, error) { return false, nil }
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) CountFollowers(_ context.Context, _ uint) (int64, error) { return 0, nil }
func (s *followRepoStub) CountFollowing(_ context.Context, _ uint) (int64, error) { return 0, nil }

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	created []*models.Comment
}

func (s *commentRepoStub) Create(_ context.Context, c *models.Comment) error {
	c.ID = uint(len(s.created) + 1)
	s.created = append(s.created, c)
	return nil
}
func (s *commentRepoStub) ListByPost(_ context.Context, postID uint) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range s.created {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *commentRepoStub) CountByPost(_ context.Context, postIDs ...uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	for _, id := range postIDs {
		for _, c := range s.created {
			if c.PostID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

// imageStoreStub records saves and removals without touching disk.
type imageStoreStub struct {
	saved   []string
	removed []string
	saveErr error
}

func (s *imageStoreStub) Save(_ context.Context, content []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if _, _, err := DecodeImage(content); err != nil {
		return "", err
	}
	rel := "posts/stub-" + string(rune('a'+len(s.saved))) + ".png"
	s.saved = append(s.saved, rel)
	return rel, nil
}

func (s *imageStoreStub) Remove(rel string) {
	s.removed = append(s.removed, rel)
}

var errStubDB = errors.New("stub database failure")

func assertFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	require.Equal(t, models.CodeValidation, appErr.Code)
	require.Contains(t, appErr.Fields, field)
	if message != "" {
		require.Equal(t, message, appErr.Fields[field])
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
