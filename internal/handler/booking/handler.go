package booking

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/handler"
	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/service/booking"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

type Handler struct {
	workflow      *booking.Workflow
	commitRetries int
}

func NewHandler(workflow *booking.Workflow, commitRetries int) *Handler {
	return &Handler{workflow: workflow, commitRetries: commitRetries}
}

type checkResponse struct {
	State          model.BookingState `json:"state"`
	Verdict        string             `json:"verdict"`
	AppointmentIDs []string           `json:"appointment_ids,omitempty"`
}

// CheckBooking answers POST /bookings/check: one dry pass through Validate.
// A conflict is reported in the body, not as an error status, because the
// caller is expected to show it and ask the user to force or revise.
func (h *Handler) CheckBooking(c *gin.Context) {
	var req model.CheckBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	proposed, err := h.toProposed(req.ClinicID, req.ProfessionalID, req.PatientID, req.StartTime, req.DurationMin)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	session := h.workflow.NewSession(proposed)
	if err := h.workflow.Validate(c.Request.Context(), session); err != nil {
		handler.RespondError(c, err)
		return
	}

	ids := make([]string, 0, len(session.ConflictIDs()))
	for _, id := range session.ConflictIDs() {
		ids = append(ids, id.String())
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(&checkResponse{
		State:          session.State(),
		Verdict:        string(session.Verdict()),
		AppointmentIDs: ids,
	}))
}

// CommitBooking answers POST /bookings: validate, optionally force, then
// commit. A commit race with no concrete colliding appointments is a
// serialization failure and is retried a bounded number of times; a race
// that names colliding appointments is a real conflict and comes straight
// back as 409.
func (h *Handler) CommitBooking(c *gin.Context) {
	var req model.CommitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	proposed, err := h.toProposed(req.ClinicID, req.ProfessionalID, req.PatientID, req.StartTime, req.DurationMin)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	proposed.Notes = req.Notes

	ctx := c.Request.Context()
	session := h.workflow.NewSession(proposed)
	if err := h.workflow.Validate(ctx, session); err != nil {
		handler.RespondError(c, err)
		return
	}

	if session.State() == model.BookingStateConflictWarning {
		if !req.Force {
			handler.RespondError(c, apperrors.NewConflict(string(session.Verdict()), session.ConflictIDs()))
			return
		}
		if err := h.workflow.Force(session); err != nil {
			handler.RespondError(c, err)
			return
		}
	}

	var result *model.BookingResult
	for attempt := 0; ; attempt++ {
		result, err = h.workflow.Commit(ctx, session)
		if err == nil {
			break
		}
		if conflict, ok := apperrors.AsConflict(err); ok && conflict.AtCommit &&
			len(conflict.AppointmentIDs) == 0 && attempt < h.commitRetries {
			h.workflow.CommitRetried()
			continue
		}
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) toProposed(clinicID, professionalID, patientID, startTime string, durationMin int) (*model.ProposedBooking, error) {
	cid, err := uuid.Parse(clinicID)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid clinic ID", err)
	}
	pid, err := uuid.Parse(professionalID)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid professional ID", err)
	}
	patID, err := uuid.Parse(patientID)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid patient ID", err)
	}
	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid start_time, expected RFC3339", err)
	}

	return &model.ProposedBooking{
		ClinicID:       cid,
		ProfessionalID: pid,
		PatientID:      patID,
		StartTime:      start,
		DurationMin:    durationMin,
	}, nil
}
