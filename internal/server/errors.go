package server

import (
	"errors"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// wantsJSON reports whether the client prefers JSON over the HTML page.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// render writes the named view, or its data as JSON for API clients.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if wantsJSON(c) {
		return c.Status(status).JSON(data)
	}
	data["Viewer"] = currentUser(c)
	data["Path"] = c.Path()
	return c.Status(status).Render(name, data, "layout")
}

// ErrorHandler turns handler errors into pages: unknown resources become the
// 404 page, missing sessions a login redirect, everything else the error page.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var appErr *models.AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		switch appErr.Code {
		case models.CodeNotFound:
			status = fiber.StatusNotFound
		case models.CodeUnauthorized:
			if !wantsJSON(c) {
				return redirectToLogin(c)
			}
			status = fiber.StatusUnauthorized
		case models.CodeForbidden:
			status = fiber.StatusForbidden
		case models.CodeValidation:
			status = fiber.StatusBadRequest
		}
		if status != fiber.StatusInternalServerError {
			message = appErr.Message
		}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	if wantsJSON(c) {
		if appErr == nil {
			err = &models.AppError{Message: message}
		}
		return models.RespondWithError(c, status, err)
	}

	page := "error"
	if status == fiber.StatusNotFound {
		page = "404"
	}
	renderErr := s.render(c, status, page, fiber.Map{
		"Status":  status,
		"Message": message,
	})
	if renderErr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to render error page",
			slog.String("error", renderErr.Error()),
		)
		return c.Status(status).SendString(message)
	}
	return nil
}
