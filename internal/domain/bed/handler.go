package bed

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
	g := api.Group("/beds", auth.RequireRole("admin", "doctor", "nurse"))
	g.POST("/allocate", h.Allocate)
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PUT("/:id/release", h.Release)
	g.PUT("/:id/transfer", h.Transfer)
}

func (h *Handler) Allocate(c echo.Context) error {
	var req AllocateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Allocate(c.Request().Context(), &req)
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

	items, total, err := h.svc.ListActive(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Release(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req ReleaseRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Release(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.svc.Transfer(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.OccupancyStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
