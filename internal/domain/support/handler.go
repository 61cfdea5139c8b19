package support

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
	// Support staff handle tickets alongside admins and editors.
	staff := api.Group("", auth.RequireRole("admin", "editor", "support"))
	staff.GET("/tickets", h.ListTickets)
	staff.GET("/tickets/:id", h.GetTicket)
	staff.POST("/tickets", h.CreateTicket)
	staff.POST("/tickets/:id/transition", h.TransitionTicket)
	staff.POST("/tickets/:id/assign", h.AssignTicket)
	staff.POST("/tickets/:id/priority", h.SetTicketPriority)

	staff.GET("/crisis-resources", h.ListResources)
	staff.GET("/crisis-resources/:id", h.GetResource)
	staff.GET("/faqs", h.ListFAQs)
	staff.GET("/faqs/:id", h.GetFAQ)

	write := api.Group("", auth.RequireRole("admin", "editor"))
	write.POST("/crisis-resources", h.CreateResource)
	write.PUT("/crisis-resources/:id", h.UpdateResource)
	write.DELETE("/crisis-resources/:id", h.DeleteResource)
	write.POST("/faqs", h.CreateFAQ)
	write.PUT("/faqs/:id", h.UpdateFAQ)
	write.DELETE("/faqs/:id", h.DeleteFAQ)
}

func serviceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrResourceNotFound),
		errors.Is(err, ErrFAQNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func parseID(c echo.Context) (uuid.UUID, *echo.HTTPError) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// Tickets

func (h *Handler) CreateTicket(c echo.Context) error {
	var t Ticket
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateTicket(c.Request().Context(), &t); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTicket(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	t, err := h.svc.GetTicket(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTickets(c echo.Context) error {
	pg := pagination.FromContext(c)

	params := map[string]string{}
	for _, key := range []string{"status", "priority", "assignee"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}

	items, total, err := h.svc.SearchTickets(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) TransitionTicket(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.TransitionTicket(c.Request().Context(), id, req.Status)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

type assignRequest struct {
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

func (h *Handler) AssignTicket(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.AssignTicket(c.Request().Context(), id, req.AssigneeID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

func (h *Handler) SetTicketPriority(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	var req priorityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.SetTicketPriority(c.Request().Context(), id, req.Priority)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

// Crisis resources

func (h *Handler) CreateResource(c echo.Context) error {
	var cr CrisisResource
	if err := c.Bind(&cr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateResource(c.Request().Context(), &cr); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, cr)
}

func (h *Handler) GetResource(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	cr, err := h.svc.GetResource(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *Handler) ListResources(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListResources(c.Request().Context(), c.QueryParam("region"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateResource(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	var cr CrisisResource
	if err := c.Bind(&cr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cr.ID = id
	if err := h.svc.UpdateResource(c.Request().Context(), &cr); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *Handler) DeleteResource(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	if err := h.svc.DeleteResource(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// FAQs

func (h *Handler) CreateFAQ(c echo.Context) error {
	var f FAQ
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateFAQ(c.Request().Context(), &f); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) GetFAQ(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	f, err := h.svc.GetFAQ(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListFAQs(c echo.Context) error {
	pg := pagination.FromContext(c)

	params := map[string]string{}
	for _, key := range []string{"category", "published"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}

	items, total, err := h.svc.ListFAQs(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateFAQ(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	var f FAQ
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f.ID = id
	if err := h.svc.UpdateFAQ(c.Request().Context(), &f); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFAQ(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	if err := h.svc.DeleteFAQ(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
