package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("matchup-coach-pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "matchup-coach-pw" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if !CheckPassword("matchup-coach-pw", hash) {
		t.Fatal("expected correct password to verify")
	}
	if CheckPassword("not-the-password", hash) {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestTokenCarriesCoachClaims(t *testing.T) {
	const secret = "matchup-test-secret"

	token, err := GenerateToken("42", "coach", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "42" {
		t.Fatalf("UserID = %q, want %q", claims.UserID, "42")
	}
	if claims.Role != "coach" {
		t.Fatalf("Role = %q, want %q", claims.Role, "coach")
	}
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	token, err := GenerateToken("42", "coach", "matchup-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, "a-different-secret"); err == nil {
		t.Fatal("expected validation to fail with the wrong secret")
	}
	if _, err := ValidateToken("not-even-a-token", "matchup-test-secret"); err == nil {
		t.Fatal("expected validation to fail for a malformed token")
	}
}
