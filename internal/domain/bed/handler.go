package bed

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smarter/er/internal/platform/auth"
	"github.com/smarter/er/pkg/pagination"
)

// ActionResponse is the envelope for bed action results.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "nurse", "triage"))
	g.POST("/bed-actions", h.Action)
	g.GET("/beds", h.ListBeds)
	g.GET("/beds/:bedNumber", h.GetBed)
	g.GET("/beds/:bedNumber/history", h.BedHistory)
}

func (h *Handler) Action(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "invalid request body"})
	}

	msg, err := h.svc.Apply(c.Request().Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).
				Str("action", req.Action).
				Str("bed_number", req.BedNumber).
				Msg("bed action failed")
			return c.JSON(status, ActionResponse{Success: false, Error: "failed to process bed action"})
		}
		return c.JSON(status, ActionResponse{Success: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ActionResponse{Success: true, Message: msg})
}

// statusFor maps engine errors to HTTP statuses. Unrecognized errors are
// internal and must not leak details to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBedNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBedOccupied),
		errors.Is(err, ErrTargetOccupied):
		return http.StatusConflict
	case errors.Is(err, ErrBedNotOccupied),
		errors.Is(err, ErrInvalidESI),
		errors.Is(err, ErrSameBed),
		errors.Is(err, ErrMissingField),
		errors.Is(err, ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) ListBeds(c echo.Context) error {
	views, stats, err := h.svc.ListBeds(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list beds failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch beds")
	}
	if views == nil {
		views = []*View{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"beds":    views,
		"stats":   stats,
	})
}

func (h *Handler) GetBed(c echo.Context) error {
	b, err := h.svc.GetBed(c.Request().Context(), c.Param("bedNumber"))
	if err != nil {
		if errors.Is(err, ErrBedNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bed not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bed")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) BedHistory(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.BedHistory(c.Request().Context(), c.Param("bedNumber"), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrBedNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bed not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bed history")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
