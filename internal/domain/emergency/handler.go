package emergency

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
	"github.com/careops/careops/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Any authenticated user can raise an alert; handling it is staff work.
	api.POST("/emergency", h.Trigger)

	g := api.Group("/emergency", auth.RequireRole("admin", "doctor", "nurse", "reception"))
	g.GET("", h.List)
	g.GET("/active", h.ListActive)
	g.GET("/:id", h.Get)
	g.PUT("/:id/acknowledge", h.Acknowledge)
	g.PUT("/:id/resolve", h.Resolve)
	g.PUT("/:id/cancel", h.Cancel)
}

func (h *Handler) Trigger(c echo.Context) error {
	var req TriggerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Trigger(c.Request().Context(), &req)
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
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListActive(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListActive(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Acknowledge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	a, err := h.svc.Acknowledge(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Resolve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Resolve(c.Request().Context(), id, &req)
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
	a, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
