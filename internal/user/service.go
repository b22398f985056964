package user

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/habitstack/service-habit-go/internal/token"
	"github.com/habitstack/service-habit-go/internal/user/entity"
	userrepo "github.com/habitstack/service-habit-go/internal/user/repo"
)

// Repository is the credential store contract the auth flow depends on.
// Satisfied by both the sqlx-backed and the in-memory repo.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrBadCredentials    = errors.New("invalid credentials")
	ErrValidation        = errors.New("email and password are required")
)

// AuthService orchestrates registration and login.
type AuthService struct {
	repo   Repository
	hasher PasswordHasher
	issuer *token.Issuer
}

func NewAuthService(repo Repository, hasher PasswordHasher, issuer *token.Issuer) *AuthService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &AuthService{repo: repo, hasher: hasher, issuer: issuer}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The returned entity never carries the hash
// into a response body (json:"-").
func (s *AuthService) Register(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		// a concurrent registration can slip past the lookup; the unique
		// constraint is the authority
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a token carrying {id, email}.
// A missing user and a wrong password are indistinguishable to the caller
// to avoid account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrBadCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return "", ErrBadCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(u.PasswordHash, password) {
		return "", ErrBadCredentials
	}

	return s.issuer.Issue(u.ID, u.Email)
}
