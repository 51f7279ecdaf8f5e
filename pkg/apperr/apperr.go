// Package apperr holds the error taxonomy shared by all services and its
// mapping onto HTTP responses.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Taxonomy. Every error a service returns to a handler should wrap one of these.
var (
	ErrValidation            = errors.New("validation error")
	ErrMalformed             = errors.New("malformed request")
	ErrConflict              = errors.New("conflict")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Domain errors built on the taxonomy.
var (
	ErrEmailAlreadyRegistered = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrInvalidCredentials     = fmt.Errorf("incorrect email or password: %w", ErrUnauthorized)
	ErrInvalidToken           = fmt.Errorf("invalid token: %w", ErrUnauthorized)
	ErrExpiredToken           = fmt.Errorf("token expired: %w", ErrUnauthorized)
	ErrMissingToken           = fmt.Errorf("missing token: %w", ErrUnauthorized)
	ErrFilmNotFound           = fmt.Errorf("film %w", ErrNotFound)
	ErrUserNotFound           = fmt.Errorf("user %w", ErrNotFound)
	ErrReviewNotFound         = fmt.Errorf("review %w", ErrNotFound)
	ErrAccountNotFound        = fmt.Errorf("account %w", ErrNotFound)
)

// Validation wraps a field-level message so errors.Is(err, ErrValidation) holds.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Unavailable marks err as a failed call to the named collaborator.
func Unavailable(dependency string, err error) error {
	return fmt.Errorf("%s: %w: %v", dependency, ErrDependencyUnavailable, err)
}

// Status maps an error onto the HTTP status the services answer with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing text for err. Internal errors are not echoed.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal error"
	}
	switch {
	// a single 401 text for every token problem
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken), errors.Is(err, ErrMissingToken):
		return "invalid token"
	case errors.Is(err, ErrDependencyUnavailable):
		return "dependency unavailable"
	}
	return err.Error()
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write answers with the status and message for err.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, status, map[string]string{"error": Message(err)})
}
