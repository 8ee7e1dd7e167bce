package coupon

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	// Validation is open to any authenticated user booking an appointment.
	api.POST("/coupons/validate", h.ValidateCoupon)

	manageGroup := api.Group("", auth.RequireRole("doctor", "admin"))
	manageGroup.POST("/coupons", h.CreateCoupon)
	manageGroup.GET("/coupons", h.ListCoupons)
	manageGroup.GET("/coupons/:id", h.GetCoupon)
	manageGroup.PUT("/coupons/:id", h.UpdateCoupon)
	manageGroup.DELETE("/coupons/:id", h.DeleteCoupon)
}

type validateRequest struct {
	Code     string    `json:"code"`
	DoctorID uuid.UUID `json:"doctorId"`
	BaseFee  float64   `json:"baseFee"`
}

// ValidateCoupon answers 200 for both applicable and inapplicable codes;
// the verdict is in the body. Only infrastructure failures are errors.
func (h *Handler) ValidateCoupon(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if req.DoctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctorId is required")
	}
	v, err := h.svc.Validate(c.Request().Context(), req.Code, req.DoctorID, req.BaseFee)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateCoupon(c echo.Context) error {
	var cp Coupon
	if err := c.Bind(&cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if claims := auth.ClaimsFromContext(c); claims != nil && cp.OwnerID == nil {
		if uid, err := uuid.Parse(claims.Subject); err == nil {
			cp.OwnerID = &uid
		}
	}
	if err := h.svc.Create(c.Request().Context(), &cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cp)
}

func (h *Handler) GetCoupon(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *Handler) ListCoupons(c echo.Context) error {
	pg := pagination.FromContext(c)
	ownerID := c.QueryParam("owner_id")
	if ownerID == "" {
		if claims := auth.ClaimsFromContext(c); claims != nil {
			ownerID = claims.Subject
		}
	}
	oid, err := uuid.Parse(ownerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner_id")
	}
	items, total, err := h.svc.ListByOwner(c.Request().Context(), oid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateCoupon(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var cp Coupon
	if err := c.Bind(&cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cp.ID = id
	if err := h.svc.Update(c.Request().Context(), &cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *Handler) DeleteCoupon(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
