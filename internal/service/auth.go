package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/mail"
	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterInput is the write model for user registration
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthService implements registration, login, email verification and
// token refresh.
type AuthService struct {
	users     UserRepo
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	sender    mail.Sender
	baseURL   string
	logger    *zap.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(users UserRepo, tokens *auth.TokenService, passwords *auth.PasswordService, sender mail.Sender, baseURL string) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		sender:    sender,
		baseURL:   baseURL,
		logger:    logging.GetLogger().With(zap.String("component", "auth-service")),
	}
}

// Register creates an inactive account, issues a token pair and
// dispatches the activation email. Activation is asynchronous: the user
// stays inactive until the emailed token is verified.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *auth.TokenPair, error) {
	if in.Username == "" {
		return nil, nil, apperror.ValidationFailed("username", "Username must not be empty")
	}
	if in.Password == "" {
		return nil, nil, apperror.ValidationFailed("password", "Password must not be empty")
	}
	if in.Email == "" {
		return nil, nil, apperror.ValidationFailed("email", "Email must not be empty")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, nil, apperror.ValidationFailed("email", "Enter a valid email address")
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperror.ValidationFailed("email", "User with this email already exists")
	}
	existing, err = s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperror.ValidationFailed("username", "User with this username already exists")
	}

	hashed, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hashed,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsActive:  false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}

	activation, err := s.tokens.GenerateActivation(user)
	if err != nil {
		return nil, nil, err
	}

	// Fire-and-forget: a broken mail relay must not fail registration.
	go func() {
		subject, body := mail.ActivationMail(s.baseURL, user.Username, activation)
		if err := s.sender.Send(user.Email, subject, body); err != nil {
			s.logger.Error("Failed to send activation email",
				zap.String("email", user.Email),
				zap.Error(err),
			)
		}
	}()

	return user, pair, nil
}

// Login authenticates credentials and returns a token pair. Unknown
// users and wrong passwords are unauthorized; inactive accounts are
// forbidden.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperror.Unauthorized("Invalid username or password")
	}
	if err := s.passwords.Verify(user.Password, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil, apperror.Unauthorized("Invalid username or password")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperror.Forbidden("Account is not activated")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// VerifyEmail activates the account named by the token. Verification is
// idempotent: an already-active user is simply confirmed.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ValidateActivation(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.ActivationExpired()
		}
		return nil, apperror.InvalidToken()
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.InvalidToken()
	}
	if user.IsActive {
		return user, nil
	}

	user.IsActive = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Account activated", zap.Int64("user_id", user.ID))
	return user, nil
}

// Refresh validates a refresh token and issues a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", apperror.Unauthorized("Token is invalid or expired")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperror.Unauthorized("Token is invalid or expired")
	}

	return s.tokens.GenerateAccess(user)
}
