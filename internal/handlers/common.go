package handlers

import (
	"encoding/json"
	"net/http"

	"recipe-share-backend/internal/apperr"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/log"
)

// Development switches error responses to include full detail instead of a
// generic message for unexpected errors. Set once at startup.
var Development bool

type successEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// respondSuccess writes the standard success envelope
func respondSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successEnvelope{Success: true, Message: message, Data: data})
}

// respondError translates an error into the standard error envelope. Typed
// errors keep their status and stable code; validation errors become a 400
// VALIDATION_ERROR; anything else is logged and surfaces as a generic 500
// unless running in development.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.From(err); ok {
		writeErrorEnvelope(w, appErr.Status, appErr.Message, appErr.Code)
		return
	}

	var verrs validation.Errors
	if ok := asValidationErrors(err, &verrs); ok {
		writeErrorEnvelope(w, http.StatusBadRequest, verrs.Error(), "VALIDATION_ERROR")
		return
	}

	log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("Unexpected error")

	message := "Something went wrong!"
	if Development {
		message = err.Error()
	}
	writeErrorEnvelope(w, http.StatusInternalServerError, message, "INTERNAL_SERVER_ERROR")
}

func writeErrorEnvelope(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorEnvelope{Success: false, Message: message, Error: code})
}

func asValidationErrors(err error, target *validation.Errors) bool {
	verrs, ok := err.(validation.Errors)
	if !ok {
		return false
	}
	*target = verrs
	return true
}

// decodeJSON parses a request body, failing with a validation error on junk
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("Invalid request body.")
	}
	return nil
}
