package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Closed error taxonomy shared by every outbound integration boundary and
// the HTTP boundary. These are the wire-visible error codes.
const (
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeValidation      = "validation_error"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeRateLimited     = "rate_limited"
	ErrorCodeUpstream        = "upstream_error"
	ErrorCodeInternal        = "internal_error"
	ErrorCodeParse           = "parse_error"
	ErrorCodePayloadTooLarge = "payload_too_large"
)

func hubErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return EnsureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not registered"), strings.Contains(msg, "unknown integration"):
		return newHubError(err.Error(), goerrors.CategoryNotFound, ErrorCodeNotFound)
	case strings.Contains(msg, "not supported"), strings.Contains(msg, "unknown operation"):
		return newHubError(err.Error(), goerrors.CategoryNotFound, ErrorCodeNotFound)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newHubError(err.Error(), goerrors.CategoryRateLimit, ErrorCodeRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newHubError(err.Error(), goerrors.CategoryBadInput, ErrorCodeValidation)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return EnsureErrorEnvelope(mapped)
}

// MapError normalizes any error into the hub taxonomy envelope. It never
// returns nil for a non-nil error and never panics.
func MapError(err error) *goerrors.Error {
	return hubErrorMapper(err)
}

func newHubError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return EnsureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

// EnsureErrorEnvelope fills the HTTP status and text code from the
// category when a classified error left them unset.
func EnsureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = DefaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func DefaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorCodeValidation
	case goerrors.CategoryNotFound:
		return ErrorCodeNotFound
	case goerrors.CategoryAuth:
		return ErrorCodeUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorCodeForbidden
	case goerrors.CategoryRateLimit:
		return ErrorCodeRateLimited
	case goerrors.CategoryExternal:
		return ErrorCodeUpstream
	default:
		return ErrorCodeInternal
	}
}

func HTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
