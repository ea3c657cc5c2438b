// Package auth provides token issuing/validation and password hashing
// for the pigeon API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/pkg/config"
)

const issuer = "pigeon"

// Token type claim values
const (
	TokenTypeAccess     = "access"
	TokenTypeRefresh    = "refresh"
	TokenTypeActivation = "activation"
)

var (
	// ErrTokenExpired is returned for structurally valid but expired tokens
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid is returned for tokens failing signature or claim checks
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// Claims is the token payload. Activation tokens carry the full identity
// snapshot the activation mail flow needs; access/refresh tokens only use
// user_id and username.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is a refresh+access token pair issued on login/register
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// TokenService signs and validates HS256 tokens. Tokens are
// self-contained: expiry is enforced purely via the signed exp claim, so
// no server-side token table exists.
type TokenService struct {
	secret        []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	activationTTL time.Duration
}

// NewTokenService creates a TokenService from auth configuration
func NewTokenService(cfg *config.AuthConfig) *TokenService {
	return &TokenService{
		secret:        []byte(cfg.Secret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		activationTTL: cfg.ActivationTTL,
	}
}

// GeneratePair issues a refresh+access token pair for the user
func (s *TokenService) GeneratePair(user *models.User) (*TokenPair, error) {
	access, err := s.sign(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Refresh: refresh, Access: access}, nil
}

// GenerateAccess issues a standalone access token (token refresh path)
func (s *TokenService) GenerateAccess(user *models.User) (string, error) {
	return s.sign(user, TokenTypeAccess, s.accessTTL)
}

// GenerateActivation issues the email-verification token. The claims
// embed the registered identity so the activation link is self-contained.
func (s *TokenService) GenerateActivation(user *models.User) (string, error) {
	return s.sign(user, TokenTypeActivation, s.activationTTL)
}

func (s *TokenService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}
	if tokenType == TokenTypeActivation {
		c.Email = user.Email
		c.FirstName = user.FirstName
		c.LastName = user.LastName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// ValidateAccess validates an access token and returns its claims
func (s *TokenService) ValidateAccess(tokenStr string) (*Claims, error) {
	return s.validate(tokenStr, TokenTypeAccess)
}

// ValidateRefresh validates a refresh token and returns its claims
func (s *TokenService) ValidateRefresh(tokenStr string) (*Claims, error) {
	return s.validate(tokenStr, TokenTypeRefresh)
}

// ValidateActivation validates an activation token and returns its
// claims. Expiry is reported as ErrTokenExpired so callers can
// distinguish "Activation Expired" from "Invalid token".
func (s *TokenService) ValidateActivation(tokenStr string) (*Claims, error) {
	return s.validate(tokenStr, TokenTypeActivation)
}

func (s *TokenService) validate(tokenStr, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if c.TokenType != wantType {
		return nil, ErrTokenInvalid
	}
	if c.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return c, nil
}
