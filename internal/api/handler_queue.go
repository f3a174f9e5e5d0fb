package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-reservation-backend/internal/engine"
)

type joinRequest struct {
	Name         string `json:"name" binding:"required"`
	Designation  string `json:"designation"`
	Comment      string `json:"comment"`
	PIN          string `json:"pin" binding:"required"`
	Urgent       bool   `json:"urgent"`
	UrgentReason string `json:"urgent_reason"`
}

// JoinQueue handles POST /api/machines/:machine/queue.
func (h *Handler) JoinQueue(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	err := h.svc.Join(c.Request.Context(), c.Param("machine"), engine.JoinInput{
		Name:         req.Name,
		Designation:  req.Designation,
		Comment:      req.Comment,
		PIN:          req.PIN,
		Urgent:       req.Urgent,
		UrgentReason: req.UrgentReason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// queuePositionRequest targets one waiter by position. Index is a pointer so
// position 0 survives required-field validation.
type queuePositionRequest struct {
	Index *int   `json:"index" binding:"required"`
	PIN   string `json:"pin" binding:"required"`
}

// SwapQueue handles POST /api/machines/:machine/queue/swap.
func (h *Handler) SwapQueue(c *gin.Context) {
	var req queuePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	if err := h.svc.Swap(c.Request.Context(), c.Param("machine"), *req.Index, req.PIN); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveQueue handles POST /api/machines/:machine/queue/leave.
func (h *Handler) LeaveQueue(c *gin.Context) {
	var req queuePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	if err := h.svc.Leave(c.Request.Context(), c.Param("machine"), *req.Index, req.PIN); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SkipQueueHead handles POST /api/machines/:machine/skip. No body and no PIN:
// skipping is open to anyone once the head's claim window has lapsed.
func (h *Handler) SkipQueueHead(c *gin.Context) {
	if err := h.svc.Skip(c.Request.Context(), c.Param("machine")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
