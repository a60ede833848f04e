package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

const internalErrorMessage = "An internal server error occurred"

type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// SuccessResponse is the envelope used by endpoints that do not return a bare resource.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError writes err with the status from HTTPStatusFromError.
// Messages of unexpected (500) errors are only exposed when exposeInternal is set.
func RespondWithDomainError(w http.ResponseWriter, err error, exposeInternal bool) {
	code := HTTPStatusFromError(err)
	resp := ErrorResponse{Error: err.Error()}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		resp.Details = vErr.Fields
	}
	if code == http.StatusInternalServerError && !exposeInternal {
		resp.Error = internalErrorMessage
	}
	RespondWithJSON(w, code, resp)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
