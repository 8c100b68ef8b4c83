package server

import (
	"strconv"

	"yatube/internal/guard"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

func postURL(username string, id uint) string {
	return "/" + username + "/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// renderPostForm shows the shared create/edit form. post is nil when creating.
func (s *Server) renderPostForm(c *fiber.Ctx, post *models.Post, form postFormView, errs map[string]string) error {
	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	if errs == nil {
		errs = map[string]string{}
	}
	return s.render(c, fiber.StatusOK, "new_post", fiber.Map{
		"IsEdit": post != nil,
		"Post":   post,
		"Groups": groups,
		"Form":   form,
		"Errors": errs,
	})
}

// NewPostForm renders an empty post form.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	if d := guard.Check(guard.CreatePost, currentUser(c), 0); d != guard.Allowed {
		return d.Err()
	}
	return s.renderPostForm(c, nil, postFormView{}, nil)
}

// CreatePost publishes a post and returns to the index.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	author := currentUser(c)
	if d := guard.Check(guard.CreatePost, author, 0); d != guard.Allowed {
		return d.Err()
	}

	form, err := parsePostForm(c)
	if err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return s.renderPostForm(c, nil, formView(form), fields)
		}
		return err
	}

	if _, err := s.postService.Create(c.UserContext(), service.CreatePostInput{Author: author, PostForm: form}); err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return s.renderPostForm(c, nil, formView(form), fields)
		}
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// EditPostForm renders the form filled with the current post.
// Anyone but the author is sent back to the post itself.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	post, err := s.postService.GetForEdit(c.UserContext(), currentUser(c), username, postID)
	if err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			return c.Redirect(postURL(username, postID), fiber.StatusFound)
		}
		return err
	}

	form := postFormView{Text: post.Text}
	if post.GroupID != nil {
		form.GroupID = *post.GroupID
	}
	return s.renderPostForm(c, post, form, nil)
}

// EditPost saves the author's changes and shows the post.
func (s *Server) EditPost(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	// Ownership is checked before the body is looked at.
	current, err := s.postService.GetForEdit(c.UserContext(), currentUser(c), username, postID)
	if err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			return c.Redirect(postURL(username, postID), fiber.StatusFound)
		}
		return err
	}

	form, err := parsePostForm(c)
	if err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return s.renderPostForm(c, current, formView(form), fields)
		}
		return err
	}

	post, err := s.postService.Edit(c.UserContext(), service.EditPostInput{
		Actor:    currentUser(c),
		Username: username,
		PostID:   postID,
		PostForm: form,
	})
	if err != nil {
		switch {
		case models.HasCode(err, models.CodeForbidden):
			return c.Redirect(postURL(username, postID), fiber.StatusFound)
		case models.FieldErrors(err) != nil:
			return s.renderPostForm(c, current, formView(form), models.FieldErrors(err))
		}
		return err
	}
	return c.Redirect(postURL(username, post.ID), fiber.StatusFound)
}

// renderPostView shows a post with its comments and the comment form.
func (s *Server) renderPostView(c *fiber.Ctx, username string, postID uint, commentText string, errs map[string]string) error {
	view, err := s.postService.View(c.UserContext(), username, postID, currentUser(c))
	if err != nil {
		return err
	}
	if errs == nil {
		errs = map[string]string{}
	}
	return s.render(c, fiber.StatusOK, "post", fiber.Map{
		"Post":        view.Post,
		"Author":      view.Author,
		"Stats":       view.Stats,
		"Comments":    view.Comments,
		"IsFollowing": view.IsFollowing,
		"CanEdit":     view.CanEdit,
		"CommentText": commentText,
		"Errors":      errs,
	})
}

// PostView shows a single post, resolved by author and id.
func (s *Server) PostView(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}
	return s.renderPostView(c, c.Params("username"), postID, "", nil)
}

// CommentRedirect handles a stray GET on the comment endpoint.
func (s *Server) CommentRedirect(c *fiber.Ctx) error {
	if d := guard.Check(guard.AddComment, currentUser(c), 0); d != guard.Allowed {
		return d.Err()
	}
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}
	return c.Redirect(postURL(c.Params("username"), postID), fiber.StatusFound)
}

// AddComment stores a comment and returns to the post.
func (s *Server) AddComment(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}
	text := c.FormValue("text")

	_, err = s.commentService.Add(c.UserContext(), service.AddCommentInput{
		Actor:    currentUser(c),
		Username: username,
		PostID:   postID,
		Text:     text,
	})
	if err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return s.renderPostView(c, username, postID, text, fields)
		}
		return err
	}
	return c.Redirect(postURL(username, postID), fiber.StatusFound)
}
