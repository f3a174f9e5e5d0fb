package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-reservation-backend/internal/engine"
)

type startRequest struct {
	Name            string `json:"name" binding:"required"`
	Designation     string `json:"designation"`
	Comment         string `json:"comment"`
	PIN             string `json:"pin" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
}

// StartMachine handles POST /api/machines/:machine/start.
func (h *Handler) StartMachine(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	err := h.svc.Start(c.Request.Context(), c.Param("machine"), engine.StartInput{
		Name:            req.Name,
		Designation:     req.Designation,
		Comment:         req.Comment,
		PIN:             req.PIN,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type pinRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// ExtendMachine handles POST /api/machines/:machine/extend.
func (h *Handler) ExtendMachine(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	if err := h.svc.Extend(c.Request.Context(), c.Param("machine"), req.PIN); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FinishMachine handles POST /api/machines/:machine/finish.
func (h *Handler) FinishMachine(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	if err := h.svc.Finish(c.Request.Context(), c.Param("machine"), req.PIN); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
