package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError writes err as a JSON error body. Middleware uses it where no handler is in play.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	response := ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Code == CodeInternal || appErr.Code == CodeInvariantViolation {
		response.Details = nil
	}

	return json.NewEncoder(w).Encode(response)
}
