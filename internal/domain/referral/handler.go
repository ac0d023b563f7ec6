package referral

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinical := api.Group("", auth.RequireClinical())
	clinical.POST("/referrals", h.Create)
	clinical.GET("/referrals", h.List)
	clinical.GET("/referrals/:id", h.Get)
	clinical.GET("/referrals/:id/actions", h.Actions)
	clinical.POST("/referrals/:id/actions", h.Act)
}

func (h *Handler) Create(c echo.Context) error {
	actor, err := h.svc.ActorHospital(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	var input CreateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ref, err := h.svc.Create(c.Request().Context(), actor.ID, input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ref)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := h.svc.ActorHospital(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	filter := ListFilter{
		HospitalID: actor.ID,
		Side:       c.QueryParam("side"),
		Status:     Status(c.QueryParam("status")),
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Actions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor, err := h.svc.ActorHospital(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	actions, err := h.svc.Actions(c.Request().Context(), id, actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	if actions == nil {
		actions = []Action{}
	}
	return c.JSON(http.StatusOK, map[string][]Action{"actions": actions})
}

type actRequest struct {
	Action Action `json:"action"`
}

func (h *Handler) Act(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor, err := h.svc.ActorHospital(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	var req actRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ref, err := h.svc.Transition(c.Request().Context(), id, req.Action, actor.ID)
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotActor):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	}
	return c.JSON(http.StatusOK, ref)
}
