// Package service implements authentication and user administration.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"terratip_backend/internal/auth/repository"
	"terratip_backend/internal/auth/transport"
	"terratip_backend/platform/apperr"
	"terratip_backend/platform/config"
	"terratip_backend/platform/logger"
)

const accessTokenType = "access"

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// Login verifies the credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, transport.Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.log.AuthEvent("login", username, false, "unknown user")
		return "", transport.Profile{}, apperr.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", username, false, "wrong password")
		return "", transport.Profile{}, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return "", transport.Profile{}, apperr.Wrap(apperr.KindInternal, "could not issue token", err)
	}

	s.log.AuthEvent("login", username, true, "")
	return token, profileOf(user), nil
}

func (s *Service) issueAccessToken(user repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         user.ID.String(),
		"username":    user.Username,
		"displayName": user.DisplayName,
		"roles":       []string{user.Role},
		"type":        accessTokenType,
		"iat":         now.Unix(),
		"exp":         now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

// GetMe returns the profile of the user with the given ID.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (transport.Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return transport.Profile{}, err
	}
	return profileOf(user), nil
}

// CreateUser registers a new account. Manager-only at the HTTP layer.
func (s *Service) CreateUser(ctx context.Context, username, email, password, displayName, role string) (transport.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return transport.Profile{}, apperr.Wrap(apperr.KindInternal, "could not hash password", err)
	}

	user, err := s.repo.Create(ctx, username, email, string(hash), displayName, role)
	if err != nil {
		return transport.Profile{}, err
	}
	return profileOf(user), nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]transport.Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]transport.Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, profileOf(user))
	}
	return profiles, nil
}

// DeleteUser removes an account. The last manager cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == transport.RoleManager {
		managers, err := s.repo.CountByRole(ctx, transport.RoleManager)
		if err != nil {
			return err
		}
		if managers <= 1 {
			return apperr.Conflict("cannot delete the last manager")
		}
	}

	return s.repo.Delete(ctx, id)
}

// EnsureBootstrapManager creates the initial manager account on first boot
// when no users exist and bootstrap credentials are configured.
func (s *Service) EnsureBootstrapManager(ctx context.Context) error {
	username := s.cfg.GetBootstrapManagerUsername()
	password := s.cfg.GetBootstrapManagerPassword()
	if username == "" || password == "" {
		return nil
	}

	managers, err := s.repo.CountByRole(ctx, transport.RoleManager)
	if err != nil {
		return err
	}
	if managers > 0 {
		return nil
	}

	_, err = s.CreateUser(ctx, username, "", password, username, transport.RoleManager)
	if err != nil && !apperr.Is(err, apperr.KindConflict) {
		return err
	}
	s.log.Info("bootstrap manager created", "username", username)
	return nil
}

// ListAgentNames implements transport.Directory for lead distribution.
func (s *Service) ListAgentNames(ctx context.Context) ([]string, error) {
	agents, err := s.repo.ListByRole(ctx, transport.RoleAgent)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		if agent.DisplayName != "" {
			names = append(names, agent.DisplayName)
			continue
		}
		names = append(names, agent.Username)
	}
	return names, nil
}

// EmailByAssignee implements transport.Directory for follow-up reminders.
func (s *Service) EmailByAssignee(ctx context.Context, assignee string) (string, error) {
	user, err := s.repo.FindByAssignee(ctx, assignee)
	if err != nil {
		return "", err
	}
	if user.Email == "" {
		return "", apperr.NotFound("user has no email address")
	}
	return user.Email, nil
}

func profileOf(user repository.User) transport.Profile {
	return transport.Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

// Compile-time check that Service implements the public directory interface.
var _ transport.Directory = (*Service)(nil)
