package availability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/handler"
	"github.com/procexaiedu/practice-scheduler/internal/service/availability"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

type slotsResponse struct {
	ClinicID       string   `json:"clinic_id"`
	ProfessionalID string   `json:"professional_id"`
	Date           string   `json:"date"`
	DurationMin    int      `json:"duration_min"`
	Slots          []string `json:"slots"`
}

// ListFreeSlots answers GET /availability/slots. An empty slots array is the
// normal answer for a closed or fully booked day.
func (h *Handler) ListFreeSlots(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}

	professionalID, err := uuid.Parse(c.Query("professional_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid professional ID"))
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.service.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	durationMin, err := strconv.Atoi(c.Query("duration_min"))
	if err != nil || durationMin <= 0 {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid duration_min"))
		return
	}

	slots, err := h.service.ListFreeSlots(c.Request.Context(), clinicID, professionalID, date, durationMin)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	formatted := make([]string, 0, len(slots))
	for _, slot := range slots {
		formatted = append(formatted, slot.Format(time.RFC3339))
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(&slotsResponse{
		ClinicID:       clinicID.String(),
		ProfessionalID: professionalID.String(),
		Date:           date.Format("2006-01-02"),
		DurationMin:    durationMin,
		Slots:          formatted,
	}))
}
