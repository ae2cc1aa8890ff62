// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package accountdb

import (
	"errors"
	"fmt"

	"nort/cli/internal/backend"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted on signup.
const MinPasswordLength = 8

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
// It wraps backend.ErrInvalid.
var ErrWeakPassword = fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, backend.ErrInvalid)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password too long: %w", backend.ErrInvalid)
		}
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a plaintext password with a stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
