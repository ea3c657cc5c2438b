package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/pkg/config"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "s3cret",
		FirstName: "Alice",
		LastName:  "Doe",
	}
}

func TestRegister_CreatesInactiveUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, pair, err := e.auth.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.IsActive {
		t.Error("Register() created an active user, want inactive")
	}
	if user.Password == "s3cret" {
		t.Error("Register() stored the plaintext password")
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Error("Register() returned an incomplete token pair")
	}

	claims, err := e.tokens.ValidateAccess(pair.Access)
	if err != nil {
		t.Fatalf("ValidateAccess() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("access token UserID = %d, want %d", claims.UserID, user.ID)
	}

	// Mail goes out on a goroutine; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		e.sender.mu.Lock()
		n := len(e.sender.sent)
		e.sender.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	e.sender.mu.Lock()
	defer e.sender.mu.Unlock()
	if len(e.sender.sent) != 1 {
		t.Fatalf("sent %d activation mails, want 1", len(e.sender.sent))
	}
	mail := e.sender.sent[0]
	if mail.To != "alice@example.com" {
		t.Errorf("activation mail To = %q", mail.To)
	}
	if !strings.Contains(mail.Body, "Hi alice.") {
		t.Errorf("activation mail body = %q, want greeting", mail.Body)
	}
	if !strings.Contains(mail.Body, "/api/auth/email-verify/?token=") {
		t.Errorf("activation mail body = %q, want verify link", mail.Body)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing username", func(in *RegisterInput) { in.Username = "" }},
		{"missing password", func(in *RegisterInput) { in.Password = "" }},
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			in := validRegisterInput()
			tt.mutate(&in)
			if _, _, err := e.auth.Register(context.Background(), in); !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmailAndUsername(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, _, err := e.auth.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	dup := validRegisterInput()
	dup.Username = "someone-else"
	if _, _, err := e.auth.Register(ctx, dup); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Register() with taken email error = %v, want ErrValidation", err)
	}

	dup = validRegisterInput()
	dup.Email = "other@example.com"
	if _, _, err := e.auth.Register(ctx, dup); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Register() with taken username error = %v, want ErrValidation", err)
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, _, err := e.auth.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, _, err := e.auth.Login(ctx, "alice", "s3cret"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Login() before activation error = %v, want ErrForbidden", err)
	}

	user.IsActive = true
	if err := e.users.Update(ctx, user); err != nil {
		t.Fatalf("activate user: %v", err)
	}

	if _, _, err := e.auth.Login(ctx, "alice", "wrong"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() with wrong password error = %v, want ErrUnauthorized", err)
	}
	if _, _, err := e.auth.Login(ctx, "nobody", "s3cret"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() with unknown user error = %v, want ErrUnauthorized", err)
	}

	got, pair, err := e.auth.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Login() user = %d, want %d", got.ID, user.ID)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Error("Login() returned an incomplete token pair")
	}
}

func TestVerifyEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, _, err := e.auth.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, err := e.tokens.GenerateActivation(user)
	if err != nil {
		t.Fatalf("GenerateActivation() error = %v", err)
	}

	verified, err := e.auth.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if !verified.IsActive {
		t.Error("VerifyEmail() left the user inactive")
	}

	// Re-verifying an active account is a no-op success.
	if _, err := e.auth.VerifyEmail(ctx, token); err != nil {
		t.Errorf("VerifyEmail() second call error = %v", err)
	}

	if _, err := e.auth.VerifyEmail(ctx, "garbage"); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Errorf("VerifyEmail() with garbage error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyEmail_Expired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, _, err := e.auth.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	expired := auth.NewTokenService(&config.AuthConfig{
		Secret:        "test-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		ActivationTTL: -time.Minute,
	})
	token, err := expired.GenerateActivation(user)
	if err != nil {
		t.Fatalf("GenerateActivation() error = %v", err)
	}

	if _, err := e.auth.VerifyEmail(ctx, token); !errors.Is(err, apperror.ErrActivationExpired) {
		t.Errorf("VerifyEmail() with expired token error = %v, want ErrActivationExpired", err)
	}
}

func TestRefresh(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, pair, err := e.auth.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	access, err := e.auth.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := e.tokens.ValidateAccess(access); err != nil {
		t.Errorf("refreshed access token invalid: %v", err)
	}

	// An access token is not a refresh token.
	if _, err := e.auth.Refresh(ctx, pair.Access); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh() with access token error = %v, want ErrUnauthorized", err)
	}
	if _, err := e.auth.Refresh(ctx, "garbage"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh() with garbage error = %v, want ErrUnauthorized", err)
	}
}
