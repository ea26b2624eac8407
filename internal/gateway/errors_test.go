package gateway

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWith(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestErrorFromResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 maps to AuthError",
			status: http.StatusUnauthorized,
			body:   `{"message":"bad credentials"}`,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, "bad credentials", authErr.Message)
			},
		},
		{
			name:   "403 maps to ForbiddenError",
			status: http.StatusForbidden,
			body:   `{"error":"no access"}`,
			check: func(t *testing.T, err error) {
				var forbiddenErr *ForbiddenError
				require.ErrorAs(t, err, &forbiddenErr)
				assert.Equal(t, "no access", forbiddenErr.Message)
			},
		},
		{
			name:   "404 maps to NotFoundError with resource key",
			status: http.StatusNotFound,
			body:   "",
			check: func(t *testing.T, err error) {
				var notFoundErr *NotFoundError
				require.ErrorAs(t, err, &notFoundErr)
				assert.Equal(t, "guide", notFoundErr.Resource)
				assert.Equal(t, "my-slug", notFoundErr.Key)
				assert.Contains(t, err.Error(), `"my-slug"`)
			},
		},
		{
			name:   "400 with details map",
			status: http.StatusBadRequest,
			body:   `{"message":"validation failed","details":{"title":"must not be blank","slug":"already taken"}}`,
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, "validation failed", reqErr.Message)
				assert.Equal(t, "must not be blank", reqErr.Details["title"])
				assert.Equal(t, "already taken", reqErr.Details["slug"])
				// Fields are rendered sorted.
				assert.Equal(t, "gateway: bad request: slug: already taken; title: must not be blank", err.Error())
			},
		},
		{
			name:   "400 with details list",
			status: http.StatusBadRequest,
			body:   `{"message":"validation failed","details":["title: must not be blank","slug: already taken"]}`,
			check: func(t *testing.T, err error) {
				var reqErr *RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, "must not be blank", reqErr.Details["title"])
				assert.Equal(t, "already taken", reqErr.Details["slug"])
			},
		},
		{
			name:   "500 maps to ServerError",
			status: http.StatusInternalServerError,
			body:   `{"message":"boom"}`,
			check: func(t *testing.T, err error) {
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
				assert.Equal(t, "boom", serverErr.Message)
				assert.True(t, serverErr.IsRetryable())
			},
		},
		{
			name:   "502 is retryable",
			status: http.StatusBadGateway,
			body:   "",
			check: func(t *testing.T, err error) {
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.True(t, serverErr.IsRetryable())
			},
		},
		{
			name:   "bare string body becomes the message",
			status: http.StatusUnauthorized,
			body:   `"token expired"`,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, "token expired", authErr.Message)
			},
		},
		{
			name:   "non-JSON body falls back to raw text",
			status: http.StatusServiceUnavailable,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.Equal(t, "upstream down", serverErr.Message)
			},
		},
		{
			name:   "detail key is honored",
			status: http.StatusForbidden,
			body:   `{"detail":"read only"}`,
			check: func(t *testing.T, err error) {
				var forbiddenErr *ForbiddenError
				require.ErrorAs(t, err, &forbiddenErr)
				assert.Equal(t, "read only", forbiddenErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errorFromResponse(responseWith(tt.status, tt.body), "guide", "my-slug")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection error", &ConnectionError{Operation: "GET /api/guides", Err: errors.New("refused")}, true},
		{"500", &ServerError{StatusCode: 500}, true},
		{"429", &ServerError{StatusCode: 429}, true},
		{"auth error", &AuthError{}, false},
		{"forbidden", &ForbiddenError{}, false},
		{"not found", &NotFoundError{Resource: "guide"}, false},
		{"bad request", &RequestError{Message: "nope"}, false},
		{"plain error", errors.New("whatever"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestUserFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth", &AuthError{Message: "x"}, "Session expired. Sign in again."},
		{"forbidden", &ForbiddenError{}, "You do not have permission to do that."},
		{"not found", &NotFoundError{Resource: "guide"}, "Not found. It may have been deleted."},
		{"bad request with message", &RequestError{Message: "slug is taken"}, "slug is taken"},
		{"bad request without message", &RequestError{}, "The submitted data was rejected."},
		{"circuit open", &CircuitOpenError{Operation: "GET /api/guides"}, "Service temporarily unavailable. Try again later."},
		{"server", &ServerError{StatusCode: 500}, "Server error. Try again later."},
		{"connection", &ConnectionError{Err: errors.New("refused")}, "Could not reach the service. Check your connection."},
		{"unknown", errors.New("odd"), "Request failed. Try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserFriendlyMessage(tt.err))
		})
	}
}
