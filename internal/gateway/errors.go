// Package gateway is the typed HTTP/JSON boundary to the remote guide
// service: list, detail, category and admin verification endpoints plus the
// authorized create/update/delete operations.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
)

// ConnectionError represents a transport-level failure: the request never
// produced an HTTP response.
type ConnectionError struct {
	Operation string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("gateway: %s failed: %v", e.Operation, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// AuthError is a 401-class response. Any authorized call receiving one must
// route it through the session manager's expiry transition.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: unauthorized: %s", e.Message)
	}
	return "gateway: unauthorized"
}

// ForbiddenError is a 403 response: the credential is valid but lacks rights.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: forbidden: %s", e.Message)
	}
	return "gateway: forbidden"
}

// NotFoundError is a 404 response for a detail fetch or mutation target.
type NotFoundError struct {
	Resource string
	Key      string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("gateway: %s %q not found", e.Resource, e.Key)
	}
	return fmt.Sprintf("gateway: %s not found", e.Resource)
}

// RequestError is a 400 response. Details carries field-level messages when
// the server supplied them; field messages take priority over Message.
type RequestError struct {
	Message string
	Details map[string]string
}

func (e *RequestError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("gateway: bad request: %s", e.Message)
	}

	fields := make([]string, 0, len(e.Details))
	for field := range e.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Details[field]))
	}
	return fmt.Sprintf("gateway: bad request: %s", strings.Join(parts, "; "))
}

// ServerError covers 5xx responses and any status outside the taxonomy.
type ServerError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway: HTTP %d %s", e.StatusCode, e.Status)
}

// IsRetryable returns true for 5xx responses and 429.
func (e *ServerError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// apiErrorBody is the wire shape of a structured error payload. The service
// sends either a details mapping of field name to message (400) or a single
// message under one of several keys.
type apiErrorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  string          `json:"detail"`
	Details json.RawMessage `json:"details"`
}

// errorFromResponse reads a non-2xx response and maps it onto the taxonomy.
// An unparseable or absent body falls back to the transport status text.
func errorFromResponse(resp *http.Response, resource, key string) error {
	const maxErrorBody = 64 * 1024
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message, details := parseErrorBody(raw)
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Message: message}
	case resp.StatusCode == http.StatusForbidden:
		return &ForbiddenError{Message: message}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Resource: resource, Key: key, Message: message}
	case resp.StatusCode == http.StatusBadRequest:
		return &RequestError{Message: message, Details: details}
	default:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Message:    message,
		}
	}
}

// parseErrorBody extracts a top-level message and optional field details from
// a JSON error payload. Details may arrive as a field-to-message mapping or
// as a list of "field: message" strings; both collapse into a map.
func parseErrorBody(raw []byte) (string, map[string]string) {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return "", nil
	}

	// A bare JSON string is the whole message.
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}

	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = body.Detail
	}

	return message, parseDetails(body.Details)
}

func parseDetails(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	var mapped map[string]string
	if err := json.Unmarshal(raw, &mapped); err == nil && len(mapped) > 0 {
		return mapped
	}

	var listed []string
	if err := json.Unmarshal(raw, &listed); err != nil || len(listed) == 0 {
		return nil
	}

	details := make(map[string]string, len(listed))
	for _, entry := range listed {
		field, msg, found := strings.Cut(entry, ":")
		if !found {
			details[entry] = entry
			continue
		}
		details[strings.TrimSpace(field)] = strings.TrimSpace(msg)
	}
	return details
}

// isRetryable reports whether the request that produced err may be reissued.
// Only transport failures and retryable server responses qualify; every
// 4xx-class error is final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.IsRetryable()
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// UserFriendlyMessage maps a gateway error onto a short message suitable for
// direct display.
func UserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "Session expired. Sign in again."
	}

	var forbiddenErr *ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return "You do not have permission to do that."
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return "Not found. It may have been deleted."
	}

	var requestErr *RequestError
	if errors.As(err, &requestErr) {
		if requestErr.Message != "" {
			return requestErr.Message
		}
		return "The submitted data was rejected."
	}

	var circuitErr *CircuitOpenError
	if errors.As(err, &circuitErr) {
		return "Service temporarily unavailable. Try again later."
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return "Server error. Try again later."
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return "Could not reach the service. Check your connection."
	}

	return "Request failed. Try again."
}
