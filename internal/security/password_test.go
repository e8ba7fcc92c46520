package security

import (
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !VerifyPassword(hash, "correct horse battery") {
		t.Error("VerifyPassword() = false for the right password")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Error("VerifyPassword() = true for the wrong password")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	b, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if a == b {
		t.Error("HashPassword() produced identical hashes for two calls; salt not applied")
	}
}

func TestVerifyPassword_MalformedStored(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{
			name:   "Empty",
			stored: "",
		},
		{
			name:   "No separator",
			stored: "justonechunk",
		},
		{
			name:   "Bad base64 salt",
			stored: "!!!$aGVsbG8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword(tt.stored, "anything") {
				t.Error("VerifyPassword() = true for malformed stored hash")
			}
		})
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	if err := ValidatePasswordStrength("longenough"); err != nil {
		t.Errorf("ValidatePasswordStrength() unexpected error = %v", err)
	}
	if err := ValidatePasswordStrength("short"); err == nil {
		t.Error("ValidatePasswordStrength() expected error for short password, got nil")
	}
}
