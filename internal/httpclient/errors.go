package httpclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the server-supplied human readable message, if any.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "backend returned " + http.StatusText(e.StatusCode)
}

// IsUnauthorized reports a 401 or 403 response.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// parseError extracts a message from {"message": ...}, {"error": "..."}
// or {"error": {"message": ...}}, in that order.
func parseError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Body: body}

	var flat struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		switch {
		case strings.TrimSpace(flat.Message) != "":
			apiErr.Message = flat.Message
		case len(flat.Error) > 0:
			var s string
			if json.Unmarshal(flat.Error, &s) == nil && strings.TrimSpace(s) != "" {
				apiErr.Message = s
				break
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(flat.Error, &nested) == nil {
				apiErr.Message = nested.Message
			}
		}
	}
	return apiErr
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ServerMessage returns the server-supplied message carried by err, if any.
// Transport failures and bodies without a message report false.
func ServerMessage(err error) (string, bool) {
	apiErr, ok := AsAPIError(err)
	if !ok || strings.TrimSpace(apiErr.Message) == "" {
		return "", false
	}
	return apiErr.Message, true
}
