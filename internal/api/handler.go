package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"laundry-reservation-backend/internal/engine"
	"laundry-reservation-backend/internal/reservation"
	"laundry-reservation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *reservation.Service
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *reservation.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
	}
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// treated as the store being unreachable.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, reservation.ErrUnknownMachine):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrWrongCredential):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrMachineBusy),
		errors.Is(err, engine.ErrSkipNotAllowed),
		errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	default:
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
