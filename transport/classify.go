package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-autohub/core"
)

// Classify maps an upstream HTTP response onto the shared error taxonomy.
// Success (2xx, including 204) yields nil; every other status becomes a
// classified error carrying the upstream status code in its metadata.
func Classify(res core.TransportResponse) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	return classifyStatus(res.StatusCode, res.Body)
}

func classifyStatus(statusCode int, body []byte) error {
	metadata := map[string]any{"status_code": statusCode}
	message := extractMessage(body)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return transportError(
			"upstream rate limit exceeded",
			goerrors.CategoryRateLimit,
			http.StatusTooManyRequests,
			metadata,
		)
	case statusCode == http.StatusUnauthorized:
		return transportError(
			fmt.Sprintf("upstream rejected credentials: %s", message),
			goerrors.CategoryAuth,
			http.StatusUnauthorized,
			metadata,
		)
	case statusCode == http.StatusForbidden:
		return transportError(
			fmt.Sprintf("upstream denied access: %s", message),
			goerrors.CategoryAuthz,
			http.StatusForbidden,
			metadata,
		)
	case statusCode == http.StatusNotFound:
		return transportError(
			fmt.Sprintf("upstream resource not found: %s", message),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			metadata,
		)
	case statusCode == http.StatusBadRequest:
		return transportError(
			message,
			goerrors.CategoryValidation,
			http.StatusBadRequest,
			metadata,
		)
	case statusCode >= 500:
		return transportError(
			fmt.Sprintf("upstream error (%d): %s", statusCode, message),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			metadata,
		)
	default:
		return transportError(
			fmt.Sprintf("unexpected upstream status (%d): %s", statusCode, message),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			metadata,
		)
	}
}

// Retryable reports whether a response status is worth another attempt.
// Only throttling and server-side failures qualify; client errors are final.
func Retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// extractMessage pulls a human readable message out of an upstream error
// body. JSON bodies with a "message" field win, then the raw body text.
func extractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "unknown error"
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	return trimmed
}
