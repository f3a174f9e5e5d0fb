package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"laundry-reservation-backend/internal/reservation"
)

// machineStatusResponse is the board view of one machine. PINs never leave
// the server.
type machineStatusResponse struct {
	Machine               string       `json:"machine"`
	Phase                 string       `json:"phase"`
	Holder                string       `json:"holder,omitempty"`
	Designation           string       `json:"designation,omitempty"`
	Comment               string       `json:"comment,omitempty"`
	StartAt               *time.Time   `json:"startAt,omitempty"`
	EndAt                 *time.Time   `json:"endAt,omitempty"`
	RemainingMinutes      int          `json:"remainingMinutes"`
	NextUp                string       `json:"nextUp,omitempty"`
	ClaimDeadline         *time.Time   `json:"claimDeadline,omitempty"`
	ClaimRemainingMinutes int          `json:"claimRemainingMinutes"`
	Queue                 []waiterView `json:"queue"`
}

type waiterView struct {
	Position     int       `json:"position"`
	Name         string    `json:"name"`
	Designation  string    `json:"designation,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	Urgent       bool      `json:"urgent"`
	UrgentReason string    `json:"urgentReason,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func toStatusResponse(ms reservation.MachineStatus) machineStatusResponse {
	resp := machineStatusResponse{
		Machine:               ms.Status.Machine,
		Phase:                 string(ms.Status.Phase),
		Holder:                ms.Status.Holder,
		EndAt:                 ms.Status.EndAt,
		RemainingMinutes:      ms.Status.RemainingMinutes,
		NextUp:                ms.Status.NextUp,
		ClaimDeadline:         ms.Status.ClaimDeadline,
		ClaimRemainingMinutes: ms.Status.ClaimRemainingMinutes,
		Queue:                 make([]waiterView, 0, len(ms.Record.Queue)),
	}
	if occ := ms.Record.Occupant; occ != nil {
		start := occ.StartAt
		resp.Designation = occ.Designation
		resp.Comment = occ.Comment
		resp.StartAt = &start
	}
	for i, w := range ms.Record.Queue {
		resp.Queue = append(resp.Queue, waiterView{
			Position:     i,
			Name:         w.Name,
			Designation:  w.Designation,
			Comment:      w.Comment,
			Urgent:       w.Urgent,
			UrgentReason: w.UrgentReason,
			JoinedAt:     w.JoinedAt,
		})
	}
	return resp
}

// GetMachines handles GET /api/machines.
func (h *Handler) GetMachines(c *gin.Context) {
	statuses, err := h.svc.StatusAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]machineStatusResponse, 0, len(statuses))
	for _, ms := range statuses {
		response = append(response, toStatusResponse(ms))
	}
	c.JSON(http.StatusOK, response)
}

// GetMachine handles GET /api/machines/:machine.
func (h *Handler) GetMachine(c *gin.Context) {
	ms, err := h.svc.Status(c.Request.Context(), c.Param("machine"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(ms))
}
