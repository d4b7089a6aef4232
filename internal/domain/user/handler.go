package user

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

// RegisterRoutes puts login on the public group and account management
// behind the admin role.
func (h *Handler) RegisterRoutes(api, public *echo.Group) {
	public.POST("/auth/login", h.Login)

	admin := api.Group("/users", auth.RequireRole("admin"))
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.PUT("/:id/active", h.SetActive)
}

func (h *Handler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, token, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrMissingField):
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, ErrInactive):
		return echo.NewHTTPError(http.StatusForbidden, "account is disabled")
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    u,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.Create(c.Request().Context(), req.Username, req.Password, req.FullName, req.Role)
	switch {
	case errors.Is(err, ErrMissingField):
		return echo.NewHTTPError(http.StatusBadRequest, "username, password and fullName are required")
	case errors.Is(err, ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, "role must be admin, nurse or triage")
	case errors.Is(err, ErrDuplicateUsername):
		return echo.NewHTTPError(http.StatusConflict, "username already exists")
	case err != nil:
		h.logger.Error().Err(err).Msg("user create failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    u,
	})
}

func (h *Handler) List(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("user list failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.SetActive(c.Request().Context(), id, req.Active); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		h.logger.Error().Err(err).Msg("user update failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
