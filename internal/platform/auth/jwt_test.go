package auth

import (
	"testing"
	"time"

	"tillpoint/internal/platform/config"
)

func newTestTokenService(ttl time.Duration) *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: ttl,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	token, err := svc.GenerateAccessToken("usr_1", "owner@bistro.example")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != "usr_1" {
		t.Errorf("Expected usr_1, got %s", claims.UserID)
	}
	if claims.Email != "owner@bistro.example" {
		t.Errorf("Expected email claim, got %s", claims.Email)
	}
}

func TestTokenExpired(t *testing.T) {
	svc := newTestTokenService(-time.Minute)

	token, err := svc.GenerateAccessToken("usr_1", "owner@bistro.example")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Expected error for expired token, got nil")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	other := NewTokenService(config.JWTConfig{Secret: "other-secret", AccessTokenTTL: time.Hour})

	token, err := svc.GenerateAccessToken("usr_1", "owner@bistro.example")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Expected error for token signed with a different secret, got nil")
	}
}

func TestGenerateDeviceToken(t *testing.T) {
	plaintext, hash, err := GenerateDeviceToken()
	if err != nil {
		t.Fatalf("Failed to generate device token: %v", err)
	}

	if !IsDeviceToken(plaintext) {
		t.Errorf("Expected dev_ prefix, got %s", plaintext)
	}
	if hash != HashDeviceToken(plaintext) {
		t.Error("Hash does not match HashDeviceToken of the plaintext")
	}

	other, _, err := GenerateDeviceToken()
	if err != nil {
		t.Fatalf("Failed to generate device token: %v", err)
	}
	if other == plaintext {
		t.Error("Two generated tokens should not collide")
	}
}
