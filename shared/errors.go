package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the typed failure every guard stage raises. The HTTP error
// handler maps it to a status code and envelope without inspecting free text.
type AppError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

const (
	CodeTokenInvalid         = "TOKEN_INVALID"
	CodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	CodeNotVerified          = "NOT_VERIFIED"
	CodeNoActiveSubscription = "NO_ACTIVE_SUBSCRIPTION"
	CodeUnknownPlan          = "UNKNOWN_PLAN"
	CodeQuotaExceeded        = "QUOTA_EXCEEDED"
	CodeRateLimited          = "RATE_LIMITED"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeWeakPassword         = "WEAK_PASSWORD"
	CodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	CodeBadRequest           = "BAD_REQUEST"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia     = "UNSUPPORTED_MEDIA_TYPE"
	CodeNotFound             = "NOT_FOUND"
	CodeForbidden            = "FORBIDDEN"
)

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message}
}

func ErrTokenInvalid(message string) *AppError {
	if message == "" {
		message = "Invalid or expired token"
	}
	return NewAppError(http.StatusUnauthorized, CodeTokenInvalid, message)
}

func ErrAccountNotFound() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeAccountNotFound, "Account no longer exists")
}

func ErrNotVerified() *AppError {
	return NewAppError(http.StatusForbidden, CodeNotVerified, "Account not verified")
}

func ErrNoActiveSubscription() *AppError {
	return NewAppError(http.StatusPaymentRequired, CodeNoActiveSubscription, "Payment required")
}

func ErrUnknownPlan(plan string) *AppError {
	appErr := NewAppError(http.StatusNotFound, CodeUnknownPlan, "Unknown subscription plan")
	appErr.Data = map[string]string{"plan": plan}
	return appErr
}

func ErrQuotaExceeded() *AppError {
	return NewAppError(http.StatusPaymentRequired, CodeQuotaExceeded, "Monthly usage limit exceeded")
}

// ErrRateLimited carries retry-after seconds so the transport layer can set
// the Retry-After header from typed data instead of parsing the message.
func ErrRateLimited(retryAfterSeconds int) *AppError {
	appErr := NewAppError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Try again in %ds", retryAfterSeconds))
	appErr.Data = map[string]int{"retry_after": retryAfterSeconds}
	return appErr
}

func ErrAlreadyExists(message string) *AppError {
	if message == "" {
		message = "Resource already exists"
	}
	return NewAppError(http.StatusConflict, CodeAlreadyExists, message)
}

func ErrWeakPassword(message string) *AppError {
	if message == "" {
		message = "Password is too weak"
	}
	return NewAppError(http.StatusBadRequest, CodeWeakPassword, message)
}

func ErrUpstreamUnavailable(provider string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeUpstreamUnavailable,
		fmt.Sprintf("%s is currently unavailable", provider))
}

func ErrBadRequest(message string) *AppError {
	if message == "" {
		message = "Bad Request"
	}
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message)
}

func ErrPayloadTooLarge(message string) *AppError {
	if message == "" {
		message = "Payload too large"
	}
	return NewAppError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

func ErrUnsupportedMedia(contentType string) *AppError {
	appErr := NewAppError(http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Unsupported file type")
	appErr.Data = map[string]string{"content_type": contentType}
	return appErr
}

func ErrNotFound(message string) *AppError {
	if message == "" {
		message = "Not Found"
	}
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "Forbidden"
	}
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}
