package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordFormat(t *testing.T) {
	h, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	sum, salt, ok := strings.Cut(h, ":")
	if !ok {
		t.Fatalf("missing separator in %q", h)
	}
	if len(sum) != 64 {
		t.Fatalf("digest length = %d, want 64", len(sum))
	}
	if len(salt) != 32 {
		t.Fatalf("salt length = %d, want 32", len(salt))
	}

	other, _ := HashPassword("s3cret")
	if other == h {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestVerifyPassword(t *testing.T) {
	h, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tests := []struct {
		name     string
		password string
		stored   string
		want     bool
	}{
		{"round trip", "password123", h, true},
		{"wrong password", "password124", h, false},
		{"empty password", "", h, false},
		{"no separator", "password123", strings.Replace(h, ":", "", 1), false},
		{"empty stored", "password123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.password, tt.stored); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyPasswordKnownDigest(t *testing.T) {
	stored := digest("abc", "salt") + ":salt"
	if !VerifyPassword("abc", stored) {
		t.Fatalf("expected digest of password+salt to verify")
	}
	if stored[:64] != digest("abcsalt", "") {
		t.Fatalf("digest must hash the concatenation password+salt")
	}
}
