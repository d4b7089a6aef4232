package display

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes wires the worklist onto the public group; the wall display
// polls it without credentials.
func (h *Handler) RegisterRoutes(public *echo.Group) {
	public.GET("/view-data", h.Worklist)
}

func (h *Handler) Worklist(c echo.Context) error {
	entries, err := h.svc.Worklist(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("worklist fetch failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch view data")
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"allPatients": entries,
	})
}
