package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
	"github.com/careops/careops/pkg/clock"
	"github.com/careops/careops/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id/reschedule", h.Reschedule)
	api.PUT("/appointments/:id/cancel", h.Cancel)

	// Bare status transitions are a staff operation.
	api.PUT("/appointments/:id/status", h.UpdateStatus,
		auth.RequireRole("admin", "doctor", "nurse", "reception"))
}

func (h *Handler) Book(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Book(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if doctorParam := c.QueryParam("doctor_id"); doctorParam != "" {
		doctorID, err := uuid.Parse(doctorParam)
		if err != nil {
			return apperr.Validation("invalid doctor_id")
		}
		var date *time.Time
		if dateParam := c.QueryParam("date"); dateParam != "" {
			d, err := clock.ParseDate(dateParam)
			if err != nil {
				return apperr.Validation("%v", err)
			}
			date = &d
		}
		items, total, err := h.svc.ListByDoctor(ctx, doctorID, date, pg.Limit, pg.Offset)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	if patientParam := c.QueryParam("patient_id"); patientParam != "" {
		patientID, err := uuid.Parse(patientParam)
		if err != nil {
			return apperr.Validation("invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(ctx, patientID, pg.Limit, pg.Offset)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	return apperr.Validation("doctor_id or patient_id query parameter is required")
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Cancel(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
