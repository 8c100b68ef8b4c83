package server

import (
	"errors"
	"io"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// pageNumber reads ?page=, falling back to the first page on junk input.
func pageNumber(c *fiber.Ctx) int {
	return pagination.ParseNumber(c.Query("page"))
}

// parsePostID extracts :post_id. Anything that is not a positive integer cannot
// name a post, so it is reported as not found.
func parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("post_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Post", c.Params("post_id"))
	}
	return uint(id), nil
}

// postFormView is what the post form template echoes back.
type postFormView struct {
	Text    string `json:"text"`
	GroupID uint   `json:"group"`
}

// parsePostForm reads the multipart post form. An unparsable group id is kept
// as 0 so that validation reports it as an invalid choice.
func parsePostForm(c *fiber.Ctx) (service.PostForm, error) {
	form := service.PostForm{
		Text:       c.FormValue("text"),
		ClearImage: c.FormValue("image-clear") == "on",
	}

	if raw := c.FormValue("group"); raw != "" {
		var groupID uint
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			groupID = uint(id)
		}
		form.GroupID = &groupID
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return form, models.NewInternalError(err)
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return form, models.NewInternalError(err)
		}
		if len(content) == 0 {
			return form, models.NewFieldError("image", "The submitted file is empty.")
		}
		form.Image = content
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
	default:
		return form, models.NewInternalError(err)
	}
	return form, nil
}

func formView(form service.PostForm) postFormView {
	v := postFormView{Text: form.Text}
	if form.GroupID != nil {
		v.GroupID = *form.GroupID
	}
	return v
}
