package availability

import (
	"net/http"

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
	// Slot resolution is open to any authenticated user.
	api.GET("/doctors/:doctorId/availability", h.ResolveAvailability)

	// Template management is reception/admin only.
	tmpl := api.Group("/availability-templates", auth.RequireRole("admin", "reception"))
	tmpl.POST("", h.CreateTemplate)
	tmpl.GET("", h.ListTemplates)
	tmpl.GET("/:id", h.GetTemplate)
	tmpl.PUT("/:id", h.UpdateTemplate)
	tmpl.DELETE("/:id", h.DeleteTemplate)
}

func (h *Handler) ResolveAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return apperr.Validation("invalid doctor id")
	}
	dateParam := c.QueryParam("date")
	if dateParam == "" {
		return apperr.Validation("date query parameter is required")
	}
	date, err := clock.ParseDate(dateParam)
	if err != nil {
		return apperr.Validation("%v", err)
	}
	day, err := h.svc.Resolve(c.Request().Context(), doctorID, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, day)
}

func (h *Handler) CreateTemplate(c echo.Context) error {
	var t Template
	if err := c.Bind(&t); err != nil {
		return apperr.Validation("invalid request body")
	}
	created, err := h.svc.CreateTemplate(c.Request().Context(), &t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	t, err := h.svc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTemplates(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return apperr.Validation("doctor_id query parameter is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTemplates(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var t Template
	if err := c.Bind(&t); err != nil {
		return apperr.Validation("invalid request body")
	}
	t.ID = id
	updated, err := h.svc.UpdateTemplate(c.Request().Context(), &t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeleteTemplate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
