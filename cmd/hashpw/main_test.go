package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// stubPasswords replaces the terminal reader with a fixed sequence of inputs.
func stubPasswords(t *testing.T, inputs ...string) {
	t.Helper()

	original := readPassword
	t.Cleanup(func() { readPassword = original })

	readPassword = func() ([]byte, error) {
		if len(inputs) == 0 {
			return nil, errors.New("no more input")
		}
		next := inputs[0]
		inputs = inputs[1:]
		return []byte(next), nil
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)

	for _, want := range []string{"Usage: hashpw <command>", "hash", "verify", "APP_PASSWORD_HASH"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected usage to contain %q", want)
		}
	}
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantErr  error
	}{
		{"Valid password", "secret123", "secret123", nil},
		{"Mismatch", "secret123", "secret124", errMismatch},
		{"Too short", "abc", "abc", errTooShort},
		{"Exactly minimum", "abcdef", "abcdef", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hashPassword([]byte(tt.password), []byte(tt.confirm), bcrypt.MinCost)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("hashPassword() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(tt.password)) != nil {
				t.Error("Expected hash to match password")
			}
		})
	}
}

func TestRunHash(t *testing.T) {
	stubPasswords(t, "dashcam!", "dashcam!")

	var buf bytes.Buffer
	if err := runHash(&buf, bcrypt.MinCost); err != nil {
		t.Fatalf("runHash() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	hash := lines[len(lines)-1]
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("dashcam!")) != nil {
		t.Errorf("Expected printed hash to match, got %q", hash)
	}
}

func TestRunHashReadError(t *testing.T) {
	stubPasswords(t, "only-one")

	if err := runHash(&bytes.Buffer{}, bcrypt.MinCost); err == nil {
		t.Error("Expected error when confirmation cannot be read")
	}
}

func TestRunVerify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("dashcam!"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Match", func(t *testing.T) {
		stubPasswords(t, "dashcam!")
		var buf bytes.Buffer
		if err := runVerify(&buf, string(hash)); err != nil {
			t.Fatalf("runVerify() error = %v", err)
		}
		if !strings.Contains(buf.String(), "Password matches.") {
			t.Errorf("Unexpected output %q", buf.String())
		}
	})

	t.Run("Mismatch", func(t *testing.T) {
		stubPasswords(t, "wrong")
		err := runVerify(&bytes.Buffer{}, string(hash))
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			t.Errorf("Expected mismatch error, got %v", err)
		}
	})

	t.Run("No hash configured", func(t *testing.T) {
		if err := runVerify(&bytes.Buffer{}, ""); !errors.Is(err, errNoHash) {
			t.Errorf("Expected errNoHash, got %v", err)
		}
	})
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hash", "hash"},
		{"verify-now", "verify-now"},
		{"rm -rf /", "rm_-rf__"},
		{"cmd\nINJECT", "cmd_INJECT"},
		{"日本", "__"},
	}

	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
