package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired means the access token was rejected and could not be refreshed.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnauthorized is matched by 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPermissionDenied is matched by 403 responses.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is matched by 404 responses.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrPermissionDenied:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// NetworkError wraps transport failures.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage maps an error to text that can be shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrPermissionDenied):
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return "You don't have permission to do that."
	case errors.As(err, &netErr):
		return "Network error. Check your connection and try again."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return err.Error()
	}
}
