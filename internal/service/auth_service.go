package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"account-auth/internal/auth"
	"account-auth/internal/domain"
	"account-auth/internal/repository"
	"account-auth/internal/writer"
)

// SignupInput is a new account request. Profile holds every extra submitted field.
type SignupInput struct {
	Email    string
	Username string
	Password string
	Profile  map[string]any
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	Message string
	Token   string
	UserID  string
}

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	Issue(identityID string) (string, error)
	Verify(token string) (string, error)
}

// AuthService describes account registration and login.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (string, error)
	GetAccount(ctx context.Context, id string) (map[string]any, error)
}

type authService struct {
	store  repository.AccountStore
	hasher auth.PasswordHasher
	tokens TokenManager
	writes writer.Manager
	logger *logrus.Logger
	newID  func() string
}

// NewAuthService wires the service. When writes is nil, mutations run on the
// caller's goroutine with no serialization between concurrent signups.
func NewAuthService(store repository.AccountStore, hasher auth.PasswordHasher, tokens TokenManager, writes writer.Manager, logger *logrus.Logger) AuthService {
	if logger == nil {
		logger = logrus.New()
	}
	return &authService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		writes: writes,
		logger: logger,
		newID:  uuid.NewString,
	}
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, invalidInput("email is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		return nil, invalidInput("username is required")
	}
	if in.Password == "" {
		return nil, invalidInput("password is required")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, invalidInput("password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	var account domain.Account
	err := s.mutate(ctx, func(ctx context.Context) error {
		accounts, err := s.store.Load(ctx)
		if err != nil {
			return internal("load accounts", err)
		}

		if _, exists := accounts[in.Email]; exists || accounts.UsernameTaken(in.Username) {
			return ErrDuplicateAccount
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return internal("hash password", err)
		}

		account = domain.Account{
			ID:           s.newID(),
			Email:        in.Email,
			Username:     in.Username,
			PasswordHash: hash,
			Profile:      profileFields(in.Profile),
		}
		accounts[account.Email] = account

		if err := s.store.Save(ctx, accounts); err != nil {
			return internal("save accounts", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			s.logger.WithField("username", in.Username).Info("signup rejected: account exists")
		} else {
			s.logger.WithError(err).Error("signup failed")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", account.ID).Error("issue token after signup")
		return nil, internal("issue token", err)
	}

	s.logger.WithField("user_id", account.ID).Info("account created")
	return &AuthResult{
		Message: "User created successfully",
		Token:   token,
		UserID:  account.ID,
	}, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	if identifier == "" {
		return nil, ErrAccountNotFound
	}

	accounts, err := s.store.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Error("login failed")
		return nil, internal("load accounts", err)
	}

	account, ok := accounts.FindByIdentifier(identifier)
	if !ok {
		return nil, ErrAccountNotFound
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.logger.WithField("user_id", account.ID).Info("login rejected: invalid password")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", account.ID).Error("issue token after login")
		return nil, internal("issue token", err)
	}

	return &AuthResult{
		Message: "Login successful",
		Token:   token,
		UserID:  account.ID,
	}, nil
}

// Authenticate returns the identity a session token was issued for.
func (s *authService) Authenticate(_ context.Context, token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *authService) GetAccount(ctx context.Context, id string) (map[string]any, error) {
	accounts, err := s.store.Load(ctx)
	if err != nil {
		return nil, internal("load accounts", err)
	}
	account, ok := accounts.FindByID(id)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Public(), nil
}

func (s *authService) mutate(ctx context.Context, job writer.Job) error {
	if s.writes == nil {
		return job(ctx)
	}
	err := s.writes.Submit(ctx, job)
	var internalErr *InternalError
	if err == nil || errors.Is(err, ErrDuplicateAccount) || errors.As(err, &internalErr) {
		return err
	}
	return internal("queue write", err)
}

// profileFields copies submitted extras, dropping keys the account owns itself.
func profileFields(in map[string]any) map[string]any {
	var out map[string]any
	for k, v := range in {
		if domain.IsReserved(k) {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(in))
		}
		out[k] = v
	}
	return out
}
