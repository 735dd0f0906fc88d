package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const minPasswordLength = 6

var (
	errMismatch = errors.New("passwords do not match")
	errTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	errNoHash   = errors.New("APP_PASSWORD_HASH is not set")
)

// readPassword reads a line from the terminal without echo.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(syscall.Stdin))
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	var err error
	switch command := os.Args[1]; command {
	case "hash":
		err = runHash(os.Stdout, bcrypt.DefaultCost)
	case "verify":
		err = runVerify(os.Stdout, os.Getenv("APP_PASSWORD_HASH"))
	default:
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized)
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Dashcam Viewer Password Tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: hashpw <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  hash    - Prompt for a password and print its bcrypt hash")
	fmt.Fprintln(w, "  verify  - Check a password against APP_PASSWORD_HASH")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  APP_PASSWORD_HASH - Hash checked by verify")
}

func prompt(w io.Writer, label string) ([]byte, error) {
	fmt.Fprint(w, label)
	password, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

func runHash(w io.Writer, cost int) error {
	password, err := prompt(w, "New Password: ")
	if err != nil {
		return err
	}
	confirm, err := prompt(w, "Confirm Password: ")
	if err != nil {
		return err
	}

	hash, err := hashPassword(password, confirm, cost)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Set this value as APP_PASSWORD_HASH:")
	fmt.Fprintln(w, hash)
	return nil
}

func hashPassword(password, confirm []byte, cost int) (string, error) {
	if !bytes.Equal(password, confirm) {
		return "", errMismatch
	}
	if len(password) < minPasswordLength {
		return "", errTooShort
	}

	hash, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func runVerify(w io.Writer, hash string) error {
	if hash == "" {
		return errNoHash
	}
	password, err := prompt(w, "Password: ")
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
		return fmt.Errorf("password does not match: %w", err)
	}
	fmt.Fprintln(w, "Password matches.")
	return nil
}
