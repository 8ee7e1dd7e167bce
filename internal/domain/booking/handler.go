package booking

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sumaargentina/turnos-api/internal/domain/doctor"
	"github.com/sumaargentina/turnos-api/internal/platform/auth"
	"github.com/sumaargentina/turnos-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/availability", h.GetAvailability)
	api.POST("/appointments", h.CreateAppointment, auth.RequireRole("patient", "doctor", "admin"))
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)

	doctorGroup := api.Group("", auth.RequireRole("doctor", "admin"))
	doctorGroup.POST("/appointments/walk-in", h.CreateWalkIn)
	doctorGroup.PATCH("/appointments/:id/attendance", h.UpdateAttendance)
	doctorGroup.PATCH("/appointments/:id/payment", h.UpdatePayment)
}

// RegisterWebhook registers the gateway callback. It goes on an
// unauthenticated group; the gateway does not carry our tokens.
func (h *Handler) RegisterWebhook(g *echo.Group) {
	g.POST("/payments/webhook", h.PaymentWebhook)
}

func httpStatusOf(err error) int {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, ErrNotAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound), errors.Is(err, doctor.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) GetAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	slots, err := h.svc.Availability(c.Request().Context(), doctorID, c.QueryParam("location_id"), date)
	if err != nil {
		return echo.NewHTTPError(httpStatusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  date,
		"slots": slots,
	})
}

type appointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
	InitPoint   string       `json:"initPoint,omitempty"`
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var draft Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if claims := auth.ClaimsFromContext(c); claims != nil && draft.PatientID == uuid.Nil {
		if uid, err := uuid.Parse(claims.Subject); err == nil {
			draft.PatientID = uid
		}
	}
	a, initPoint, err := h.svc.Submit(c.Request().Context(), &draft)
	if err != nil {
		return echo.NewHTTPError(httpStatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, appointmentResponse{Appointment: a, InitPoint: initPoint})
}

func (h *Handler) CreateWalkIn(c echo.Context) error {
	var draft Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.SubmitWalkIn(c.Request().Context(), &draft)
	if err != nil {
		return echo.NewHTTPError(httpStatusOf(err), err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	if doctorID := c.QueryParam("doctor_id"); doctorID != "" {
		did, err := uuid.Parse(doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		items, total, err := h.svc.ListByDoctor(c.Request().Context(), did, c.QueryParam("date"), pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or doctor_id query parameter required")
}

type attendanceRequest struct {
	Attendance Attendance `json:"attendance"`
}

func (h *Handler) UpdateAttendance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req attendanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.MarkAttendance(c.Request().Context(), id, req.Attendance); err != nil {
		return echo.NewHTTPError(httpStatusOf(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type paymentRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

func (h *Handler) UpdatePayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.MarkPayment(c.Request().Context(), id, req.PaymentStatus); err != nil {
		return echo.NewHTTPError(httpStatusOf(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type webhookRequest struct {
	Reference string `json:"external_reference"`
	Status    string `json:"status"`
}

// PaymentWebhook reconciles gateway payments. Only an approved status marks
// the appointment paid; everything else is acknowledged and ignored.
func (h *Handler) PaymentWebhook(c echo.Context) error {
	var req webhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status != "approved" {
		return c.NoContent(http.StatusOK)
	}
	id, err := uuid.Parse(req.Reference)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid external_reference")
	}
	if err := h.svc.MarkPayment(c.Request().Context(), id, PaymentPaid); err != nil {
		return echo.NewHTTPError(httpStatusOf(err), err.Error())
	}
	return c.NoContent(http.StatusOK)
}
