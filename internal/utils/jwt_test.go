package utils

import (
	"errors"
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, "user-1", "ann@x.com", "Ann", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(tok.Exp); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Errorf("unexpected expiry distance: %s", remaining)
	}

	claims, err := ParseAccessToken(testAccessSecret, tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ann@x.com" || claims.FullName != "Ann" {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestRefreshTokenCarriesOnlyID(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, "user-1", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseRefreshToken(testRefreshSecret, tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
}

func TestTokenKeysAreIndependent(t *testing.T) {
	access, err := NewAccessToken(testAccessSecret, "user-1", "ann@x.com", "Ann", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// An access token must not verify under the refresh key and vice versa.
	if _, err := ParseAccessToken(testRefreshSecret, access.Token); !errors.Is(err, ErrTokenBadSignature) {
		t.Errorf("cross-key parse error = %v, want ErrTokenBadSignature", err)
	}

	refresh, err := NewRefreshToken(testRefreshSecret, "user-1", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseRefreshToken(testAccessSecret, refresh.Token); !errors.Is(err, ErrTokenBadSignature) {
		t.Errorf("cross-key parse error = %v, want ErrTokenBadSignature", err)
	}
}

func TestParseAccessTokenFailureReasons(t *testing.T) {
	expired, err := NewAccessToken(testAccessSecret, "user-1", "ann@x.com", "Ann", -1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"expired", expired.Token, ErrTokenExpired},
		{"malformed", "not-a-token", ErrTokenMalformed},
		{"empty", "", ErrTokenMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseAccessToken(testAccessSecret, tc.raw); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	if a != Fingerprint("token-a") {
		t.Error("fingerprint is not deterministic")
	}
	if a == Fingerprint("token-b") {
		t.Error("different tokens share a fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
