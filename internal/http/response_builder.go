// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses so every
// handler writes status, headers and body the same way.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetcare/internal/core"
	"budgetcare/internal/editor"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
	raw        []byte
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the JSON body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Raw sends content untouched. contentType replaces the JSON content type.
func (b *JSONResponseBuilder) Raw(contentType string, content []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = content
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	if _, ok := b.headers["Content-Type"]; !ok {
		b.headers["Content-Type"] = "application/json; charset=utf-8"
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	body := b.raw
	if body == nil && b.data != nil {
		encoded, err := json.Marshal(b.data)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal_error","message":"Une erreur inattendue est survenue."}`))
			return
		}
		body = encoded
	}

	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorBody is the payload of every error response. Message is shown to users.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(ErrorBody{Error: code, Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", "Méthode non autorisée.")
}

const (
	msgBadRequest      = "Format de requête invalide."
	msgSessionNotFound = "Session d'édition expirée ou introuvable."
	msgUnknownAction   = "Action d'édition inconnue."
	msgRateLimited     = "Trop de requêtes. Réessayez plus tard."
	msgNotFound        = "Ressource introuvable."
)

// DomainError maps a service or editor error to its status, error code
// and French message.
func DomainError(err error) *JSONResponseBuilder {
	status, code := classify(err)
	message := core.UserMessage(err)
	switch {
	case errors.Is(err, editor.ErrSessionNotFound):
		message = msgSessionNotFound
	case errors.Is(err, editor.ErrUnknownAction):
		message = msgUnknownAction
	}
	return ErrorResponse(status, code, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "invalid_amount"
	case errors.Is(err, core.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, core.ErrPlanNotFound):
		return http.StatusNotFound, "plan_not_found"
	case errors.Is(err, core.ErrCategoryNotFound):
		return http.StatusNotFound, "category_not_found"
	case errors.Is(err, core.ErrReservationNotFound):
		return http.StatusNotFound, "reservation_not_found"
	case errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, editor.ErrUnknownAction):
		return http.StatusBadRequest, "unknown_action"
	}
	return http.StatusInternalServerError, "internal_error"
}
