package repository

import (
	"context"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPostInWritingOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	anna := testutil.CreateUser(t, db, "anna")
	post := testutil.CreatePost(t, db, leo, nil, "hello", time.Now())
	other := testutil.CreatePost(t, db, leo, nil, "other", time.Now())

	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: anna.ID, Text: "first"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "second"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: other.ID, AuthorID: leo.ID, Text: "elsewhere"}))

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "anna", comments[0].Author.Username)
	assert.Equal(t, "second", comments[1].Text)
}

func TestGroupRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Group{Title: "Dogs", Slug: "dogs"}))
	require.NoError(t, repo.Create(ctx, &models.Group{Title: "Cats", Slug: "cats"}))

	err := repo.Create(ctx, &models.Group{Title: "More cats", Slug: "cats"})
	assert.Contains(t, models.FieldErrors(err), "slug")

	group, err := repo.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", group.Title)

	_, err = repo.GetBySlug(ctx, "birds")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Cats", groups[0].Title)
}

func TestCommentRepository_CountByPost(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	busy := testutil.CreatePost(t, db, leo, nil, "busy", time.Now())
	quiet := testutil.CreatePost(t, db, leo, nil, "quiet", time.Now())
	other := testutil.CreatePost(t, db, leo, nil, "other", time.Now())
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Comment{PostID: busy.ID, AuthorID: leo.ID, Text: "yes"}))
	}
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: other.ID, AuthorID: leo.ID, Text: "not asked for"}))

	counts, err := repo.CountByPost(ctx, busy.ID, quiet.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{busy.ID: 3}, counts)

	counts, err = repo.CountByPost(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
