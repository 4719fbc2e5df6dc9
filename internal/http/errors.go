package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"teamfin/internal/core"
	"teamfin/internal/services"
)

// errBadRequest marks malformed input that never reached a service.
var errBadRequest = errors.New("bad request")

// errTooLarge marks request bodies over an endpoint's size limit.
var errTooLarge = errors.New("request too large")

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyPaid),
		errors.Is(err, core.ErrAlreadyActive),
		errors.Is(err, core.ErrAlreadyInactive),
		errors.Is(err, core.ErrInUse),
		errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidConfiguration),
		errors.Is(err, core.ErrCurrencyMismatch),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownCurrency),
		errors.Is(err, core.ErrInvalidPattern),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrMissingReference),
		errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrInvalidMethod),
		errors.Is(err, core.ErrInvalidEmail):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": "..."}. Internal errors are logged and
// not echoed to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
