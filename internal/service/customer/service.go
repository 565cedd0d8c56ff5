package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"farmisian/internal/domain"
	custrepo "farmisian/internal/repository/customer"
	tokenrepo "farmisian/internal/repository/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// Service handles customer signup/login flows and answers who is signed in.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	logger      *zap.Logger
	accessTTL   time.Duration
	passwordMin int
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, tokens tokenrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens, time.Now),
		logger:      logger,
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Status is the authentication status handed to the cart and chat layers.
type Status struct {
	IsAuthenticated bool             `json:"isAuthenticated"`
	User            *domain.Customer `json:"user,omitempty"`
}

// Signup registers a new storefront customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	return s.create(ctx, in, domain.RoleCustomer)
}

// EnsureAdmin creates the back office account unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*domain.Customer, error) {
	c, err := s.create(ctx, SignupInput{Email: email, Password: password, Name: "Admin"}, domain.RoleAdmin)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.repo.GetByEmail(ctx, email)
	}
	return c, err
}

func (s *Service) create(ctx context.Context, in SignupInput, role string) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrValidation)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         name,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer registered", zap.String("customer_id", c.ID), zap.String("role", c.Role))
	return c, nil
}

// Login validates credentials and returns an access token plus the customer.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, c.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return c, access, nil
}

// Logout revokes token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	customerID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// StatusFor resolves token to an authentication status. A blank or invalid
// token is an anonymous visitor, not an error.
func (s *Service) StatusFor(ctx context.Context, token string) (Status, error) {
	if token == "" {
		return Status{}, nil
	}
	c, err := s.LookupByToken(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{IsAuthenticated: true, User: c}, nil
}

// PurgeExpiredTokens drops tokens that expired before now.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.repo.DeleteExpired(ctx, s.tokens.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired tokens purged", zap.Int64("count", n))
	}
	return n, nil
}

// Count returns the number of storefront customers.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
