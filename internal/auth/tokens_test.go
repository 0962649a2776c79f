package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/justsurfingit/InternConnect/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := models.User{Base: models.Base{ID: "u-1"}, Email: "s@uni.edu", Role: models.RoleStudent}

	token, expiresAt, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry in the past: %v", expiresAt)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID() != "u-1" || claims.Role != models.RoleStudent || claims.Email != "s@uni.edu" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	user := models.User{Base: models.Base{ID: "u-1"}, Role: models.RoleAdmin}
	token, _, err := NewTokenIssuer("one", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = NewTokenIssuer("two", time.Hour).Parse(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(models.User{Base: models.Base{ID: "u-1"}, Role: models.RoleEmployer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = NewTokenIssuer("secret", time.Minute).Parse(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	if _, err := NewTokenIssuer("secret", time.Hour).Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}
