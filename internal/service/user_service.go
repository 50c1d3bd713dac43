package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

const minPasswordLen = 8

// AdminCredentials is the single shared admin login.
type AdminCredentials struct {
	Email    string
	Password string
}

// UserService registers shoppers and exchanges credentials for tokens.
type UserService struct {
	users    repository.UserRepository
	tokens   *auth.Tokens
	admin    AdminCredentials
	validate *validator.Validate
	log      *zap.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.Tokens, admin AdminCredentials, log *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, admin: admin, validate: validator.New(), log: log}
}

// Register creates a shopper account and returns its token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return "", domain.Validation("name is required")
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", domain.Validation("Please enter a valid email")
	}
	if len(password) < minPasswordLen {
		return "", domain.Validation("Please enter a strong password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.Dependency("could not secure password", err)
	}
	u := domain.User{Name: name, Email: strings.ToLower(email), PasswordHash: hash}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", domain.Validation("User already exists")
		}
		return "", domain.Dependency("could not create user", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(auth.OwnerCap(u.ID))
}

// Login checks the shopper's password and returns a token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.Unauthorized("Invalid credentials")
		}
		return "", domain.Dependency("could not load user", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", domain.Unauthorized("Invalid credentials")
	}
	return s.issue(auth.OwnerCap(u.ID))
}

// AdminLogin checks the shared admin credential and returns an admin token.
func (s *UserService) AdminLogin(email, password string) (string, error) {
	if s.admin.Email == "" || s.admin.Password == "" {
		return "", domain.Unauthorized("Invalid credentials")
	}
	emailOK := auth.EqualSecret(strings.ToLower(email), strings.ToLower(s.admin.Email))
	passOK := auth.EqualSecret(password, s.admin.Password)
	if !emailOK || !passOK {
		s.log.Warn("admin login rejected")
		return "", domain.Unauthorized("Invalid credentials")
	}
	return s.issue(auth.AdminCap())
}

func (s *UserService) issue(c auth.Capability) (string, error) {
	token, err := s.tokens.Issue(c)
	if err != nil {
		return "", domain.Dependency("could not issue token", err)
	}
	return token, nil
}
