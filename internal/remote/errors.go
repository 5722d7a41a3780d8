package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError indicates the request never produced a response
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError indicates a response whose status was not "success"
type APIError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %q (http %d)", e.Status, e.HTTPStatus)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// DecodeError indicates a response body of unexpected shape
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response of %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Message returns text suitable for showing the user
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	var netErr *NetworkError
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if text := http.StatusText(apiErr.HTTPStatus); text != "" {
			return text
		}
		return "Request failed"
	case errors.As(err, &netErr):
		return "Network unavailable. Check your connection and try again."
	case errors.As(err, &decodeErr):
		return "Unexpected response from server."
	default:
		return err.Error()
	}
}

// IsUnauthorized reports whether the backend rejected the credentials
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusUnauthorized
}
