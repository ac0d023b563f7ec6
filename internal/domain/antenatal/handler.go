package antenatal

import (
	"encoding/json"
	"net/http"
	"strings"

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
	clinical.POST("/pregnancies", h.CreatePregnancy)
	clinical.GET("/pregnancies", h.ListPregnancies)
	clinical.GET("/pregnancies/:id", h.GetPregnancy)
	clinical.PUT("/pregnancies/:id", h.UpdatePregnancy)
	clinical.DELETE("/pregnancies/:id", h.DeletePregnancy)
	clinical.PUT("/pregnancies/:id/risk", h.AssessRisk)
	clinical.GET("/pregnancies/:id/schedule", h.ListSchedule)
	clinical.POST("/pregnancies/:id/schedule/generate", h.GenerateSchedule)
	clinical.PATCH("/visits/:id", h.UpdateVisit)
	clinical.GET("/risk-factors", h.RiskFactors)

	clinical.POST("/pregnancies/:id/registration", h.StartRegistration)
	clinical.GET("/registrations/:id", h.GetRegistration)
	clinical.PUT("/registrations/:id/sections/:name", h.CompleteSection)
	clinical.POST("/registrations/:id/finalize", h.FinalizeRegistration)
}

func (h *Handler) CreatePregnancy(c echo.Context) error {
	var input CreatePregnancyInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CreatePregnancy(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPregnancy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPregnancy(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "pregnancy not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPregnancies(c echo.Context) error {
	pg := pagination.FromContext(c)
	if raw := c.QueryParam("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.ListPregnancies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePregnancy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var input UpdatePregnancyInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdatePregnancy(c.Request().Context(), id, input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePregnancy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePregnancy(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "pregnancy not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AssessRisk(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var input AssessRiskInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AssessRisk(c.Request().Context(), id, input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) RiskFactors(c echo.Context) error {
	high, medium := RiskFactors()
	return c.JSON(http.StatusOK, map[string][]string{
		"high":   high,
		"medium": medium,
	})
}

func (h *Handler) GenerateSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	visits, err := h.svc.RegenerateSchedule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"visits": visits})
}

func (h *Handler) ListSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	visits, err := h.svc.ListSchedule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "pregnancy not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"visits": visits})
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var input UpdateVisitInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateVisit(c.Request().Context(), id, input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) StartRegistration(c echo.Context) error {
	pregnancyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reg, err := h.svc.StartRegistration(c.Request().Context(), pregnancyID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, reg)
}

func (h *Handler) GetRegistration(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reg, err := h.svc.GetRegistration(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "registration not found")
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) CompleteSection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.ToLower(c.Param("name"))

	var payload json.RawMessage
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid section payload")
	}

	reg, err := h.svc.CompleteSection(c.Request().Context(), id, name, payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) FinalizeRegistration(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reg, err := h.svc.FinalizeRegistration(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, reg)
}
