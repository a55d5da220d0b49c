package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials covers unknown emails, accounts without a
	// password and wrong passwords alike.
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "identity.verify", "Invalid credentials")
	ErrEmailTaken         = apperr.New(apperr.ErrConflict, "identity.register", "Email already registered")
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// FederatedAssertion is the identity a trusted provider vouched for.
type FederatedAssertion struct {
	Email   string
	Name    string
	Subject string
}

type IdentityService struct {
	users   UserStore
	cost    int
	compare func(hash, password []byte) error

	dummyOnce sync.Once
	dummyHash []byte
}

func NewIdentityService(users UserStore) *IdentityService {
	return &IdentityService{
		users:   users,
		cost:    bcrypt.DefaultCost,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// rejectSlowly spends the same bcrypt work as a real comparison so unknown
// emails and password-less accounts are not distinguishable by latency.
func (s *IdentityService) rejectSlowly(password string) error {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("remind-me-unused"), s.cost)
	})
	_ = s.compare(s.dummyHash, []byte(password))
	return ErrInvalidCredentials
}

// VerifyCredentials returns the id of the user the email and password belong to.
func (s *IdentityService) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", s.rejectSlowly(password)
	}
	if err != nil {
		return "", err
	}
	if user.PasswordHash == "" {
		return "", s.rejectSlowly(password)
	}
	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return user.ID, nil
}

// FederatedLogin returns the user for a provider-verified email, creating a
// free, verified account the first time the email is seen. Existing accounts
// are returned as they are.
func (s *IdentityService) FederatedLogin(ctx context.Context, a FederatedAssertion) (*models.User, error) {
	const op = "identity.federated_login"
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" {
		return nil, apperr.New(apperr.ErrUnauthorized, op, "Identity provider returned no email")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		Email:            email,
		Name:             a.Name,
		SubscriptionTier: models.TierFree,
		EmailVerified:    true,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, apperr.ErrConflict) {
		// lost a race with a concurrent first login
		return s.users.FindUserByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a password account on the free tier.
func (s *IdentityService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	const op = "identity.register"
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, apperr.InvalidInput(op, "A valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.InvalidInput(op, "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "Failed to hash password", err)
	}

	user := &models.User{
		Email:            addr.Address,
		Name:             strings.TrimSpace(name),
		PasswordHash:     string(hash),
		SubscriptionTier: models.TierFree,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}
