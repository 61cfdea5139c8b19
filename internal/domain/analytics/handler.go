package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindhaven/mindhaven/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "editor", "support"))
	read.GET("/analytics/dashboard", h.Dashboard)
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.svc.BuildDashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
