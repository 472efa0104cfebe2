package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestTokenManagerIssueAndParse(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	user := domain.User{
		ID:    "user-1",
		Email: "user@example.com",
		Role:  domain.RoleAdmin,
	}

	token, err := tm.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, domain.RoleAdmin)
	}
}

func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	tm1, _ := NewTokenManager("secret-one", time.Hour)
	tm2, _ := NewTokenManager("secret-two", time.Hour)

	token, err := tm1.Issue(domain.User{ID: "user-1", Email: "u@example.com", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := tm2.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Parse with wrong secret: err = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenManagerRejectsExpiredToken(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", time.Nanosecond)

	token, err := tm.Issue(domain.User{ID: "user-1", Email: "u@example.com", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := tm.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Parse expired token: err = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenManagerRejectsGarbage(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", time.Hour)
	if _, err := tm.Parse("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Parse garbage: err = %v, want ErrTokenInvalid", err)
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("err = %v, want ErrSecretRequired", err)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal the plain password")
	}

	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("CheckPassword with correct password: %v", err)
	}
	if err := CheckPassword(hash, "wrong password!!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("CheckPassword with wrong password: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Fatalf("err = %v, want ErrPasswordTooShort", err)
	}
}
