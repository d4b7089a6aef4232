package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ActivityEntry captures a mutating staff action for the activity trail:
// who did what, from where, and the outcome status.
type ActivityEntry struct {
	UserID    string
	Action    string // create, update, delete
	Path      string
	Method    string
	IPAddress string
	RequestID string
	Status    int
	Timestamp time.Time
}

// ActivityRecorder persists activity entries. Decoupling the middleware from
// the concrete store lets tests supply a mock.
type ActivityRecorder interface {
	RecordActivity(entry ActivityEntry) error
}

// ActivityRecorderFunc is a function adapter for ActivityRecorder.
type ActivityRecorderFunc func(entry ActivityEntry) error

func (f ActivityRecorderFunc) RecordActivity(entry ActivityEntry) error {
	return f(entry)
}

// Activity returns middleware that records every mutating request under
// /api/v1 (bed actions, queue updates, registrations, settings writes). Reads
// are not recorded. Entries always go to the structured log; when a recorder
// is supplied they are persisted as well.
func Activity(logger zerolog.Logger, recorders ...ActivityRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") || !isMutating(req.Method) {
				return next(c)
			}

			err := next(c)

			entry := ActivityEntry{
				Action:    methodToAction(req.Method),
				Path:      req.URL.Path,
				Method:    req.Method,
				IPAddress: c.RealIP(),
				Status:    c.Response().Status,
				Timestamp: time.Now().UTC(),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if uid, ok := c.Get("user_id").(string); ok {
				entry.UserID = uid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordActivity(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record activity entry")
				}
			}

			logger.Info().
				Str("type", "activity").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.Status).
				Msg("staff_action")

			return err
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return "read"
}
