package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/socio/socio-go/internal/crypto"
	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailTaken         = errors.New("email already taken")
)

// AuthService owns the credential store and issues access tokens.
type AuthService struct {
	repo   *repository.UserRepository
	hasher crypto.Hasher
	tokens *crypto.TokenService
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, hasher crypto.Hasher, tokens *crypto.TokenService) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a new account. The email is stored exactly as given.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.UserResponse, error) {
	if strings.TrimSpace(req.Email) == "" {
		return model.UserResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.UserResponse{}, ErrPasswordRequired
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	return user.ToResponse(), nil
}

// FindByEmail returns the user with exactly this email, or nil when there is none.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// VerifyCredentials returns the user owning email if password matches.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials, and an
// unknown email still pays for one hash comparison.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.burnComparison(password)
		return nil, ErrInvalidCredentials
	}

	match, err := crypto.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return user.ToResponse(), nil
}

func (s *AuthService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("socio-dummy-password")
	})
	if s.dummyHash != "" {
		_, _ = crypto.VerifyPassword(password, s.dummyHash)
	}
}
