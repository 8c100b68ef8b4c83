package server

import (
	"context"
	"net/url"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	authCookieName = "auth_token"
	loginPath      = "/auth/login/"
)

// OptionalAuth resolves the session from the auth cookie or a Bearer token.
// Anonymous and invalid sessions continue without a user.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(authCookieName)
		if token == "" {
			parts := strings.Split(c.Get("Authorization"), " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			return c.Next()
		}

		user, err := s.authService.UserFromToken(c.UserContext(), token)
		if err != nil {
			if !models.HasCode(err, models.CodeUnauthorized) {
				return err
			}
			if c.Cookies(authCookieName) != "" {
				s.clearAuthCookie(c)
			}
			return c.Next()
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// currentUser returns the signed-in user, or nil for anonymous visitors.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// loginURL keeps slashes in next readable, e.g. /auth/login/?next=/new/.
func loginURL(next string) string {
	return loginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect(loginURL(c.OriginalURL()), fiber.StatusFound)
}

// safeNext only allows local absolute paths as a post-login target.
// Browsers drop tabs and newlines from URLs, so control bytes are refused
// before they can turn "/\t/host" into "//host".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	for i := 0; i < len(next); i++ {
		if next[i] < 0x20 || next[i] == 0x7f {
			return "/"
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

func (s *Server) setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(service.TokenTTL),
	})
}

func (s *Server) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}

type signupFormView struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SignupForm renders the registration page.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "signup", fiber.Map{
		"Form":   signupFormView{},
		"Errors": map[string]string{},
	})
}

// Signup registers a user and sends them to the login page.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.SignupInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		FirstName:       c.FormValue("first_name"),
		LastName:        c.FormValue("last_name"),
		Password:        c.FormValue("password1"),
		PasswordConfirm: c.FormValue("password2"),
	}

	if _, err := s.authService.Signup(c.UserContext(), in); err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return s.render(c, fiber.StatusOK, "signup", fiber.Map{
				"Form": signupFormView{
					Username:  in.Username,
					Email:     in.Email,
					FirstName: in.FirstName,
					LastName:  in.LastName,
				},
				"Errors": fields,
			})
		}
		return err
	}
	return c.Redirect(loginPath, fiber.StatusFound)
}

// LoginForm renders the login page, remembering where to go afterwards.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", fiber.Map{
		"Next":     safeNext(c.Query("next")),
		"Username": "",
		"Errors":   map[string]string{},
	})
}

// Login checks credentials, sets the session cookie and follows next.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := safeNext(c.FormValue("next", c.Query("next")))

	_, token, err := s.authService.Login(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			return s.render(c, fiber.StatusOK, "login", fiber.Map{
				"Next":     next,
				"Username": username,
				"Errors":   fields,
			})
		}
		return err
	}

	s.setAuthCookie(c, token)
	return c.Redirect(next, fiber.StatusFound)
}

// Logout clears the session cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearAuthCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}
