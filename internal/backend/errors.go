// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the credentials or session token were rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means the account already exists.
	ErrConflict = errors.New("account already exists")
	// ErrInvalid means the service refused the input (for example a weak password).
	ErrInvalid = errors.New("invalid request")
)

// StatusError is an unexpected HTTP status from the identity service.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.Status, e.Body)
}

// IsRejection reports whether err is a service-level rejection rather than a
// transport or service fault.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalid)
}

// statusError maps a non-success response to a sentinel or StatusError.
// message is the service-provided detail, if any was decoded.
func statusError(op string, resp *http.Response, message string) error {
	if message == "" {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message = strings.TrimSpace(string(b))
	}
	wrap := func(sentinel error) error {
		if message == "" {
			return fmt.Errorf("%s: %w", op, sentinel)
		}
		return fmt.Errorf("%s: %w: %s", op, sentinel, message)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return wrap(ErrUnauthorized)
	case http.StatusConflict:
		return wrap(ErrConflict)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return wrap(ErrInvalid)
	}
	return &StatusError{Op: op, Status: resp.StatusCode, Body: message}
}
