package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// ConflictResponse is the body for conflict and commit-race rejections. The
// verdict and colliding ids give the caller enough to render a warning and
// offer the force/revise choice.
type ConflictResponse struct {
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	Verdict        string   `json:"verdict"`
	AppointmentIDs []string `json:"appointment_ids"`
	AtCommit       bool     `json:"at_commit"`
}

// RespondError maps domain errors onto HTTP statuses. Conflicts come back as
// 409 with the structured body; everything unrecognized is a 500 with a
// generic message so internals never leak.
func RespondError(c *gin.Context, err error) {
	if conflict, ok := apperrors.AsConflict(err); ok {
		ids := make([]string, 0, len(conflict.AppointmentIDs))
		for _, id := range conflict.AppointmentIDs {
			ids = append(ids, id.String())
		}
		c.JSON(http.StatusConflict, &ConflictResponse{
			Status:         "error",
			Message:        conflict.Error(),
			Verdict:        conflict.Verdict,
			AppointmentIDs: ids,
			AtCommit:       conflict.AtCommit,
		})
		return
	}

	switch {
	case apperrors.IsCode(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(err.Error()))
	case apperrors.IsCode(err, apperrors.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
	case apperrors.IsCode(err, apperrors.ErrClosed):
		c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(err.Error()))
	case apperrors.IsCode(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
	}
}
