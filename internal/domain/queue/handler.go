package queue

import (
	"errors"
	"net/http"
	"strconv"

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

// RegisterRoutes wires the staff queue endpoints onto the authenticated API
// group and the announcement feed onto the public group the display polls.
func (h *Handler) RegisterRoutes(api, public *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "nurse", "triage"))
	g.GET("/queues", h.List)
	g.POST("/queues", h.Enqueue)
	g.PUT("/queues/:id", h.Update)
	public.GET("/queue-calls", h.ActiveCalls)
}

func (h *Handler) List(c echo.Context) error {
	waiting, called, err := h.svc.List(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list queues failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch queues")
	}
	if waiting == nil {
		waiting = []*Ticket{}
	}
	if called == nil {
		called = []*Ticket{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"waiting": waiting,
		"called":  called,
	})
}

func (h *Handler) Enqueue(c echo.Context) error {
	var body struct {
		PatientID int64 `json:"patientId"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	q, err := h.svc.Enqueue(c.Request().Context(), body.PatientID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingField):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, ErrDuplicateActive):
			return echo.NewHTTPError(http.StatusConflict, "patient already has an active queue")
		default:
			h.logger.Error().Err(err).Int64("patient_id", body.PatientID).Msg("enqueue failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create queue")
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "queue": q})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid queue ID")
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Apply(c.Request().Context(), id, body.Action); err != nil {
		switch {
		case errors.Is(err, ErrMissingField), errors.Is(err, ErrUnknownAction):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "queue not found")
		default:
			h.logger.Error().Err(err).Int64("queue_id", id).Msg("queue update failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update queue")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) ActiveCalls(c echo.Context) error {
	calls, err := h.svc.ActiveCalls(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("active calls fetch failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch queue calls")
	}
	if calls == nil {
		calls = []*ActiveCall{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "calls": calls})
}
