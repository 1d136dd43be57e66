package server

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-autohub/core"
)

// APIError is the wire shape of a failed response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// APIResponse is the uniform envelope for every endpoint.
type APIResponse struct {
	OK        bool      `json:"ok"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

func successResponse(data any, requestID string) APIResponse {
	return APIResponse{OK: true, Data: data, RequestID: requestID}
}

func failureResponse(code, message string, details map[string]any, requestID string) APIResponse {
	return APIResponse{
		OK:        false,
		Error:     &APIError{Code: code, Message: message, Details: details},
		RequestID: requestID,
	}
}

// writeSuccess emits a 200 envelope.
func writeSuccess(w http.ResponseWriter, data any, requestID string) {
	writeJSON(w, http.StatusOK, successResponse(data, requestID))
}

// writeError maps any error into the taxonomy envelope and picks the HTTP
// status from the error category.
func writeError(w http.ResponseWriter, err error, requestID string) {
	mapped := core.MapError(err)
	if mapped == nil {
		mapped = core.MapError(goerrors.New("unknown failure", goerrors.CategoryInternal))
	}
	status := mapped.Code
	if status < http.StatusBadRequest {
		status = core.HTTPStatus(mapped.Category)
	}
	var details map[string]any
	if len(mapped.Metadata) > 0 {
		details = mapped.Metadata
	}
	writeJSON(w, status, failureResponse(mapped.TextCode, mapped.Message, details, requestID))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
