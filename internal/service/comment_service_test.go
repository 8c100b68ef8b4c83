package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentServiceFixture() (*CommentService, *commentRepoStub, *models.User, *models.User) {
	leo := &models.User{ID: 1, Username: "leo"}
	anna := &models.User{ID: 2, Username: "anna"}
	posts := noopPostRepo()
	posts.getByAuthorAndIDFn = func(_ context.Context, authorID, id uint) (*models.Post, error) {
		if authorID == leo.ID && id == 5 {
			return &models.Post{ID: 5, AuthorID: leo.ID}, nil
		}
		return nil, models.NewNotFoundError("Post", id)
	}
	comments := &commentRepoStub{}
	return NewCommentService(comments, posts, newUserRepoStub(leo, anna)), comments, leo, anna
}

func TestCommentService_Add(t *testing.T) {
	svc, comments, _, anna := newCommentServiceFixture()

	comment, err := svc.Add(context.Background(), AddCommentInput{Actor: anna, Username: "leo", PostID: 5, Text: " Great post! "})
	require.NoError(t, err)

	assert.Equal(t, "Great post!", comment.Text)
	assert.Equal(t, uint(5), comment.PostID)
	assert.Equal(t, anna.ID, comment.AuthorID)
	assert.Equal(t, "anna", comment.Author.Username)
	assert.Len(t, comments.created, 1)
}

func TestCommentService_Add_Rejections(t *testing.T) {
	svc, comments, _, anna := newCommentServiceFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, AddCommentInput{Username: "leo", PostID: 5, Text: "hi"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Add(ctx, AddCommentInput{Actor: anna, Username: "leo", PostID: 6, Text: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.Add(ctx, AddCommentInput{Actor: anna, Username: "anna", PostID: 5, Text: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.Add(ctx, AddCommentInput{Actor: anna, Username: "leo", PostID: 5, Text: "  "})
	assertFieldError(t, err, "text", "This field is required.")

	assert.Empty(t, comments.created)
}
