package server

import (
	"net/http"
	"net/url"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupValues(username string) url.Values {
	return url.Values{
		"username":   {username},
		"email":      {username + "@example.com"},
		"first_name": {"Leo"},
		"last_name":  {"Tolstoy"},
		"password1":  {"anna-karenina-1877"},
		"password2":  {"anna-karenina-1877"},
	}
}

func authCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == authCookieName {
			return c
		}
	}
	return nil
}

func TestSignupThenLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/auth/signup/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password2"`)

	resp, _ = env.postForm(t, "/auth/signup/", signupValues("leo"), nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/", resp.Header.Get("Location"))

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "leo").First(&user).Error)
	assert.NotEqual(t, "anna-karenina-1877", user.Password, "password is stored hashed")

	resp, body = env.get(t, "/auth/login/?next=/new/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="/new/"`)

	resp, _ = env.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"anna-karenina-1877"},
		"next":     {"/new/"},
	}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/new/", resp.Header.Get("Location"))

	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	resp, _ = env.get(t, "/new/", &http.Cookie{Name: authCookieName, Value: cookie.Value})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "the issued cookie opens protected pages")
}

func TestSignup_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "taken")

	tests := []struct {
		name     string
		mutate   func(v url.Values)
		wantText string
	}{
		{"duplicate username", func(v url.Values) { v.Set("username", "taken") }, "A user with that username already exists."},
		{"reserved username", func(v url.Values) { v.Set("username", "follow") }, "This username is reserved."},
		{"password mismatch", func(v url.Values) { v.Set("password2", "something-else-1") }, "The two password fields didn"},
		{"bad email", func(v url.Values) { v.Set("email", "not-an-email") }, "Enter a valid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := signupValues("fresh")
			tt.mutate(values)

			resp, body := env.postForm(t, "/auth/signup/", values, nil)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.wantText)
		})
	}

	var n int64
	require.NoError(t, env.db.Model(&models.User{}).Where("username = ?", "fresh").Count(&n).Error)
	assert.Zero(t, n)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.postForm(t, "/auth/signup/", signupValues("leo"), nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, body := env.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"wrong-password"},
	}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please enter a correct username and password.")
	assert.Nil(t, authCookie(resp))

	resp, _ = env.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"anna-karenina-1877"},
		"next":     {"//evil.example.com/"},
	}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"), "off-site next is ignored")

	resp, _ = env.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"anna-karenina-1877"},
		"next":     {"/\t/evil.example"},
	}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"), "control bytes in next are refused")
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	resp, _ := env.get(t, "/auth/logout/", env.login(t, user))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestOptionalAuth_InvalidTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/new/", &http.Cookie{Name: authCookieName, Value: "garbage"})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))

	resp, _ = env.get(t, "/", &http.Cookie{Name: authCookieName, Value: "garbage"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
