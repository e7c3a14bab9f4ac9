package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmr/account-service/internal/domain"
)

// FieldError is one entry in a validation failure response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the uniform response body: {success, message?, data?, errors?}.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Envelope{Success: false, Message: message})
}

func respondValidationErrors(w http.ResponseWriter, errs []FieldError) {
	respondJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// respondServiceError translates orchestrator failures into the error
// taxonomy. Database constraint violations that reach here unmapped get a
// final fallback translation; anything else is a 500 with detail suppressed
// outside development mode.
func respondServiceError(w http.ResponseWriter, err error, development bool) {
	switch {
	case errors.Is(err, domain.ErrEmailExists):
		respondError(w, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, domain.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrNoFieldsToUpdate):
		respondError(w, http.StatusBadRequest, "No valid fields to update")
	default:
		if pgErr := pgError(err); pgErr != nil {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				respondError(w, http.StatusConflict, "Resource already exists")
				return
			case pgerrcode.ForeignKeyViolation:
				respondError(w, http.StatusBadRequest, "Referenced resource not found")
				return
			}
		}
		message := "Internal server error"
		if development {
			message = err.Error()
		}
		respondError(w, http.StatusInternalServerError, message)
	}
}

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}
