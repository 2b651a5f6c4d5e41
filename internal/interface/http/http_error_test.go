package http

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
)

func TestFromDomainError(t *testing.T) {
	t.Parallel()
	upstream := errors.New("dial tcp: timeout")
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		message    string
		retryAfter time.Duration
	}{
		{
			name:    "invalid input",
			err:     apperrors.Wrap(apperrors.CodeInvalidInput, "lat is required", nil),
			status:  http.StatusBadRequest,
			code:    apperrors.CodeInvalidInput,
			message: "lat is required",
		},
		{
			name:       "rate limited",
			err:        apperrors.Wrap(apperrors.CodeRateLimited, "rate limit exceeded", &ratelimit.ExceededError{RetryAfter: 12 * time.Second}),
			status:     http.StatusTooManyRequests,
			code:       apperrors.CodeRateLimited,
			message:    "rate limit exceeded",
			retryAfter: 12 * time.Second,
		},
		{
			name:    "data unavailable",
			err:     apperrors.Wrap(apperrors.CodeDataUnavailable, "failed to fetch sun data", upstream),
			status:  http.StatusServiceUnavailable,
			code:    apperrors.CodeDataUnavailable,
			message: "failed to fetch sun data",
		},
		{
			name:    "plain error",
			err:     upstream,
			status:  http.StatusInternalServerError,
			code:    apperrors.CodeInternal,
			message: "something went wrong",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fromDomainError(tt.err)
			require.Equal(t, tt.status, got.Status)
			require.Equal(t, tt.code, got.Code)
			require.Equal(t, tt.message, got.Message)
			require.Equal(t, tt.retryAfter, got.RetryAfter)
			require.Equal(t, tt.err, got.Err)
		})
	}
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()
	require.Nil(t, asHTTPError(nil))

	mapped := NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "days must be a positive integer", nil)
	require.Same(t, mapped, asHTTPError(mapped))

	fallback := asHTTPError(errors.New("panic recovered"))
	require.Equal(t, http.StatusInternalServerError, fallback.Status)
	require.Equal(t, apperrors.CodeInternal, fallback.Code)
}
