package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost_AnonymousIsSentToLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/new/", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))

	resp, _ = env.postMultipart(t, "/new/", map[string]string{"text": "sneaky"}, nil, nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))
	assert.Zero(t, env.countPosts(t))
}

func TestNewPost_FormListsGroups(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	testutil.CreateGroup(t, env.db, "cats")

	resp, body := env.get(t, "/new/", env.login(t, user))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/new/"`)
	assert.Contains(t, body, "Group cats")
}

func TestCreatePost_WithImageAndGroup(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "cats")

	resp, _ := env.postMultipart(t, "/new/", map[string]string{
		"text":  "A cat on a mat",
		"group": strconv.FormatUint(uint64(group.ID), 10),
	}, &upload{field: "image", filename: "cat.png", content: testutil.PNGBytes(t, 4, 4)}, env.login(t, user))

	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "A cat on a mat", post.Text)
	assert.Equal(t, user.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
	require.NotEmpty(t, post.Image)

	_, err := os.Stat(filepath.Join(env.cfg.MediaDir, filepath.FromSlash(post.Image)))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.cfg.MediaDir, filepath.FromSlash(service.ThumbnailPath(post.Image))))
	assert.NoError(t, err)
}

func TestCreatePost_RejectsNonImageUpload(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	resp, body := env.postMultipart(t, "/new/", map[string]string{"text": "Look at this"},
		&upload{field: "image", filename: "notes.txt", content: []byte("definitely not an image")},
		env.login(t, user))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, service.InvalidImageMessage)
	assert.Contains(t, body, "Look at this", "the form keeps what was typed")
	assert.Zero(t, env.countPosts(t))
}

func TestCreatePost_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	cookie := env.login(t, user)

	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"blank text", map[string]string{"text": "   "}, "This field is required."},
		{"unknown group", map[string]string{"text": "hi", "group": "404"}, "Select a valid choice."},
		{"garbage group id", map[string]string{"text": "hi", "group": "cats"}, "Select a valid choice."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.postMultipart(t, "/new/", tt.values, nil, cookie)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.want)
		})
	}
	assert.Zero(t, env.countPosts(t))
}

func TestCreatePost_InvalidationShowsPostOnCachedIndex(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	testutil.CreatePost(t, env.db, user, nil, "first post", time.Now().Add(-time.Hour))

	_, body := env.get(t, "/", nil)
	require.Contains(t, body, "first post")

	// Written behind the service's back, so the cached page does not know about it.
	testutil.CreatePost(t, env.db, user, nil, "direct insert", time.Now().Add(-time.Minute))
	_, body = env.get(t, "/", nil)
	assert.NotContains(t, body, "direct insert", "index is served from cache")

	resp, _ := env.postMultipart(t, "/new/", map[string]string{"text": "through the form"}, nil, env.login(t, user))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	_, body = env.get(t, "/", nil)
	assert.Contains(t, body, "through the form")
	assert.Contains(t, body, "direct insert")
}

func TestEditPost_NonAuthorIsRedirectedAndPostUnchanged(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	intruder := testutil.CreateUser(t, env.db, "anna")
	post := testutil.CreatePost(t, env.db, author, nil, "original text", time.Now())
	editURL := postURL("leo", post.ID) + "edit/"
	cookie := env.login(t, intruder)

	resp, _ := env.get(t, editURL, cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))

	resp, _ = env.postMultipart(t, editURL, map[string]string{"text": "defaced"}, nil, cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "original text", reloaded.Text)
}

func TestEditPost_AnonymousIsSentToLogin(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, author, nil, "original text", time.Now())
	editURL := postURL("leo", post.ID) + "edit/"

	resp, _ := env.get(t, editURL, nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, loginURL(editURL), resp.Header.Get("Location"))
}

func TestEditPost_ByAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	group := testutil.CreateGroup(t, env.db, "books")
	post := testutil.CreatePost(t, env.db, author, group, "draft", time.Now())
	editURL := postURL("leo", post.ID) + "edit/"
	cookie := env.login(t, author)

	resp, body := env.get(t, editURL, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "draft")
	assert.Contains(t, body, `action="`+editURL+`"`)

	resp, _ = env.postMultipart(t, editURL, map[string]string{"text": "final"}, nil, cookie)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "final", reloaded.Text)
	assert.Nil(t, reloaded.GroupID, "an empty group choice detaches the post")
}

func TestEditPost_InvalidInputKeepsPost(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, author, nil, "keep me", time.Now())
	editURL := postURL("leo", post.ID) + "edit/"

	resp, body := env.postMultipart(t, editURL, map[string]string{"text": "changed"},
		&upload{field: "image", filename: "x.png", content: []byte("GIF89a but not really")},
		env.login(t, author))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, service.InvalidImageMessage)

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "keep me", reloaded.Text)
}

func TestPostView(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "anna")
	post := testutil.CreatePost(t, env.db, author, nil, "hello world", time.Now())
	require.NoError(t, env.db.Create(&models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "nice one"}).Error)

	resp, body := env.get(t, postURL("leo", post.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "hello world")
	assert.Contains(t, body, "nice one")
	assert.NotContains(t, body, "/edit/", "anonymous visitors get no edit link")
	assert.NotContains(t, body, `name="text"`, "anonymous visitors get no comment form")

	_, body = env.get(t, postURL("leo", post.ID), env.login(t, author))
	assert.Contains(t, body, postURL("leo", post.ID)+"edit/")

	var view struct {
		Post     models.Post      `json:"Post"`
		Comments []models.Comment `json:"Comments"`
		CanEdit  bool             `json:"CanEdit"`
	}
	env.getJSON(t, postURL("leo", post.ID), env.login(t, reader), &view)
	assert.Equal(t, post.ID, view.Post.ID)
	assert.Len(t, view.Comments, 1)
	assert.False(t, view.CanEdit)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "anna")
	post := testutil.CreatePost(t, env.db, author, nil, "hello world", time.Now())
	commentURL := postURL("leo", post.ID) + "comment"
	cookie := env.login(t, reader)

	countComments := func() int64 {
		var n int64
		require.NoError(t, env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&n).Error)
		return n
	}

	t.Run("anonymous is sent to login", func(t *testing.T) {
		resp, _ := env.postForm(t, commentURL, url.Values{"text": {"hi"}}, nil)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, loginURL(commentURL), resp.Header.Get("Location"))
		assert.Zero(t, countComments())
	})

	t.Run("GET just redirects to the post", func(t *testing.T) {
		resp, _ := env.get(t, commentURL, cookie)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))
	})

	t.Run("blank comment re-renders the post", func(t *testing.T) {
		resp, body := env.postForm(t, commentURL, url.Values{"text": {"  "}}, cookie)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "This field is required.")
		assert.Zero(t, countComments())
	})

	t.Run("comment on a missing post", func(t *testing.T) {
		resp, _ := env.postForm(t, postURL("leo", post.ID+100)+"comment", url.Values{"text": {"hi"}}, cookie)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("valid comment", func(t *testing.T) {
		resp, _ := env.postForm(t, commentURL, url.Values{"text": {"great post"}}, cookie)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postURL("leo", post.ID), resp.Header.Get("Location"))
		assert.Equal(t, int64(1), countComments())
	})
}

func TestRequestWithBearerToken(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	token, err := env.server.authService.IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/new/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, _ := env.do(t, req, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
