package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fishcast/internal/domain/ratelimit"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromDomainError maps an AppError code to its HTTP status.
func fromDomainError(err error) *HTTPError {
	switch code := apperrors.CodeOf(err); code {
	case apperrors.CodeInvalidInput:
		return NewHTTPError(http.StatusBadRequest, code, errMessage(err), err)
	case apperrors.CodeRateLimited:
		httpErr := NewHTTPError(http.StatusTooManyRequests, code, errMessage(err), err)
		var exceeded *ratelimit.ExceededError
		if errors.As(err, &exceeded) {
			httpErr.RetryAfter = exceeded.RetryAfter
		}
		return httpErr
	case apperrors.CodeDataUnavailable:
		return NewHTTPError(http.StatusServiceUnavailable, code, errMessage(err), err)
	default:
		return internalError(err)
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return internalError(err)
}

func internalError(err error) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, apperrors.CodeInternal, "something went wrong", err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) string {
	seconds := int64((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10)
}

// errMessage prefers the AppError message so wrapped upstream details stay in logs.
func errMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
