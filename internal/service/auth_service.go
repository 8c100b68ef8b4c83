package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "yatube"
	TokenAudience = "yatube-web"
	TokenTTL      = 14 * 24 * time.Hour
)

const invalidLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

type SignupInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// AuthService registers users and issues the session tokens kept in the auth cookie.
type AuthService struct {
	userRepo   repository.UserRepository
	secret     []byte
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, secret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		secret:     []byte(secret),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	invalid := models.NewValidationError("Please correct the errors below.")
	if err := validation.ValidateUsername(in.Username); err != nil {
		invalid.WithField("username", err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		invalid.WithField("email", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		invalid.WithField("password1", err.Error())
	}
	if in.Password != in.PasswordConfirm {
		invalid.WithField("password2", "The two password fields didn't match.")
	}
	if _, taken := invalid.Fields["username"]; !taken {
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			invalid.WithField("username", "A user with that username already exists.")
		}
	}
	if _, bad := invalid.Fields["email"]; !bad {
		existing, err := s.userRepo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			invalid.WithField("email", "A user with that email already exists.")
		}
	}
	if len(invalid.Fields) > 0 {
		return nil, invalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", models.NewValidationError(invalidLoginMessage).WithField("form", invalidLoginMessage)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(TokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a token and returns the user id in its subject.
func (s *AuthService) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return 0, models.NewUnauthorizedError("invalid or expired token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, models.NewUnauthorizedError("invalid token subject")
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewUnauthorizedError("invalid user id in token")
	}
	return uint(id), nil
}

// UserFromToken resolves the user a token was issued to.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	id, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("token user no longer exists")
		}
		return nil, err
	}
	return user, nil
}
