package api

import (
	"encoding/json"
	"net/http"

	"ewaybill-workers/internal/common/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps validation failures to 400, unknown documents to 404 and
// everything that went wrong upstream to 502.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeInputParsing:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	stdErr := errors.AsStandardError(err)
	writeJSON(w, statusFor(stdErr.Code), errorBody{Error: errorDetail{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	}})
}

func writeValidationErrors(w http.ResponseWriter, messages []string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    string(errors.ErrCodeValidationFailed),
		Message: "Input validation failed",
		Fields:  messages,
	}})
}
