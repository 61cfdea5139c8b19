package assessment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "editor", "support"))
	read.GET("/assessments", h.List)
	read.GET("/assessments/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "editor"))
	write.POST("/assessments", h.Create)
	write.PUT("/assessments/:id", h.Update)
	write.DELETE("/assessments/:id", h.Deactivate)
	write.POST("/assessments/:id/duplicate", h.Duplicate)
	write.POST("/assessments/:id/preview", h.Preview)
	write.POST("/assessments/bulk/publish", h.BulkPublish)
	write.POST("/assessments/bulk/unpublish", h.BulkUnpublish)
	write.POST("/assessments/bulk/delete", h.BulkDelete)
}

func serviceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
	case errors.Is(err, ErrDuplicateType):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoScoringConfig):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var a Assessment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	params := map[string]string{}
	if category := c.QueryParam("category"); category != "" {
		params["category"] = category
	}
	if active := c.QueryParam("active"); active != "" {
		params["active"] = active
	}

	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Update(c.Request().Context(), id, params)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Duplicate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	dup, err := h.svc.Duplicate(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, dup)
}

type bulkRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type bulkResponse struct {
	Affected int `json:"affected"`
}

func (h *Handler) BulkPublish(c echo.Context) error {
	return h.bulkSetActive(c, true)
}

func (h *Handler) BulkUnpublish(c echo.Context) error {
	return h.bulkSetActive(c, false)
}

func (h *Handler) bulkSetActive(c echo.Context, active bool) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.BulkSetActive(c.Request().Context(), req.IDs, active)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, bulkResponse{Affected: n})
}

func (h *Handler) BulkDelete(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.BulkDelete(c.Request().Context(), req.IDs)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, bulkResponse{Affected: n})
}

type previewRequest struct {
	Responses map[string]string `json:"responses"`
}

// Preview scores a response payload against the assessment's stored
// configuration and returns the report without persisting anything.
func (h *Handler) Preview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Preview(c.Request().Context(), id, req.Responses)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}
