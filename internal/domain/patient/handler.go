package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smarter/er/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "nurse", "triage"))
	g.GET("/patients", h.Lookup)
	g.POST("/patients", h.Register)
	g.GET("/patients/next-hn", h.NextHN)
}

func (h *Handler) Lookup(c echo.Context) error {
	p, err := h.svc.Lookup(c.Request().Context(), c.QueryParam("hn"))
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingField):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		default:
			h.logger.Error().Err(err).Msg("patient lookup failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to search patient")
		}
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Register(c.Request().Context(), &p); err != nil {
		switch {
		case errors.Is(err, ErrMissingField):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateHN):
			return echo.NewHTTPError(http.StatusConflict, "HN already exists")
		default:
			h.logger.Error().Err(err).Msg("patient registration failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create patient")
		}
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) NextHN(c echo.Context) error {
	hn, err := h.svc.NextHN(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("next hn generation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate HN")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "hn": hn})
}
