package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TvixT/simple-mart/internal/auth"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles account registration and login. Tokens are opaque to the
// rest of the system; handlers pass them back to the client untouched.
type Service struct {
	repo   Repository
	hasher *auth.PasswordHasher
	tokens *auth.TokenMaker
}

func NewService(repo Repository, hasher *auth.PasswordHasher, tokens *auth.TokenMaker) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (User, string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, "", fmt.Errorf("hasher.Hash: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         RoleCustomer,
	}

	if err := s.repo.Create(ctx, &u); err != nil {
		return User{}, "", err
	}

	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return User{}, "", fmt.Errorf("tokens.Issue: %w", err)
	}

	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return User{}, "", fmt.Errorf("tokens.Issue: %w", err)
	}

	return u, token, nil
}

func (s *Service) Profile(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}
