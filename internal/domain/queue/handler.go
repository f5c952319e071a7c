package queue

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole("admin", "doctor", "nurse", "reception")
	g := api.Group("/queue", staff)
	g.PATCH("/:appointmentId", h.UpdateStatus)
	g.GET("/appointments/:appointmentId", h.GetByAppointment)
	api.GET("/doctors/:doctorId/queue", h.TodayQueue, staff)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	e, err := h.svc.UpdateStatus(c.Request().Context(), appointmentID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}
	e, err := h.svc.GetByAppointment(c.Request().Context(), appointmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) TodayQueue(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return apperr.Validation("invalid doctor id")
	}
	entries, err := h.svc.TodayQueue(c.Request().Context(), doctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
