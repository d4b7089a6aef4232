package settings

import (
	"encoding/json"
	"errors"
	"io"
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

// RegisterRoutes wires reads onto the public group (the wall display polls
// both endpoints without credentials) and writes behind the admin role.
func (h *Handler) RegisterRoutes(api, public *echo.Group) {
	public.GET("/sound-settings", h.GetSoundSettings)
	public.GET("/theme", h.GetTheme)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/sound-settings", h.SaveSoundSettings)
	admin.POST("/theme", h.SetTheme)
}

func (h *Handler) GetSoundSettings(c echo.Context) error {
	settings, err := h.svc.SoundSettings(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("sound settings fetch failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch settings")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": settings,
	})
}

func (h *Handler) SaveSoundSettings(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	settings, err := h.svc.SaveSoundSettings(c.Request().Context(), json.RawMessage(body))
	if err != nil {
		if !json.Valid(body) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		h.logger.Error().Err(err).Msg("sound settings save failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save settings")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": settings,
	})
}

func (h *Handler) GetTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"theme":   h.svc.Theme(c.Request().Context()),
	})
}

func (h *Handler) SetTheme(c echo.Context) error {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.SetTheme(c.Request().Context(), req.Theme); err != nil {
		if errors.Is(err, ErrInvalidTheme) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid theme")
		}
		h.logger.Error().Err(err).Msg("theme save failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save theme")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"theme":   req.Theme,
	})
}
