package service

import (
	"context"
	"strings"

	"github.com/AnTengye/jobtracker/model"
	"github.com/AnTengye/jobtracker/pkg/apperr"
	"github.com/AnTengye/jobtracker/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// AuthService registers users and checks their credentials.
type AuthService struct {
	users UserRepository
	cost  int
}

func NewAuthService(users UserRepository) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperr.InvalidInput("Missing required fields: username, email, password")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.InvalidInput("Password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Internal("Failed to create user", err)
	}

	user, err := s.users.CreateUser(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperr.InvalidInput("Missing username or password")
	}

	invalid := apperr.Unauthorized("Invalid username or password")

	user, err := s.users.GetUserByUsername(ctx, username)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "login failed", "username", username)
		return nil, invalid
	}
	return user, nil
}
