package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/complaintdesk/backend/internal/store"
)

type Handler struct {
	Store     *store.Store
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// storeError maps the store's error taxonomy onto HTTP responses.
func (h *Handler) storeError(c *gin.Context, err error) {
	var validationErr *store.ValidationError
	var transitionErr *store.TransitionError
	var formatErr *store.ImportFormatError
	var persistErr *store.PersistenceError

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case errors.As(err, &validationErr):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Reason, gin.H{"field": validationErr.Field})
	case errors.As(err, &transitionErr):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "Status transition not allowed", gin.H{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		})
	case errors.As(err, &formatErr):
		writeError(c, http.StatusBadRequest, "IMPORT_FORMAT_ERROR", formatErr.Reason, nil)
	case errors.As(err, &persistErr):
		h.Logger.Error().Err(err).Msg("persistence failure")
		writeError(c, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to save changes", err.Error())
	default:
		h.Logger.Error().Err(err).Msg("unexpected store error")
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error", err.Error())
	}
}
