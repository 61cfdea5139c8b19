package activity

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindhaven/mindhaven/internal/platform/auth"
	"github.com/mindhaven/mindhaven/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the activity log under admin-only access.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("", auth.RequireRole("admin"))
	admin.GET("/activity", h.Search)
	admin.GET("/activity/export/csv", h.ExportCSV)
	admin.GET("/activity/export/json", h.ExportJSON)
}

func parseSearchParams(c echo.Context) SearchParams {
	pg := pagination.FromContext(c)
	params := SearchParams{
		ActorID:    c.QueryParam("actor"),
		ActorEmail: c.QueryParam("actor_email"),
		Action:     c.QueryParam("action"),
		EntityType: c.QueryParam("entity_type"),
		SortOrder:  c.QueryParam("sort"),
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	}
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.From = t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.To = t
		}
	}
	return params
}

func (h *Handler) Search(c echo.Context) error {
	params := parseSearchParams(c)
	items, total, err := h.svc.Search(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) ExportCSV(c echo.Context) error {
	params := parseSearchParams(c)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"activity_export_%s.csv\"", time.Now().UTC().Format("20060102_150405")))
	c.Response().WriteHeader(http.StatusOK)

	return h.svc.ExportCSV(c.Request().Context(), params, c.Response())
}

func (h *Handler) ExportJSON(c echo.Context) error {
	params := parseSearchParams(c)

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"activity_export_%s.json\"", time.Now().UTC().Format("20060102_150405")))
	c.Response().WriteHeader(http.StatusOK)

	return h.svc.ExportJSON(c.Request().Context(), params, c.Response())
}
