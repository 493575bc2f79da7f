package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleHealth returns server health status.
func (h *Handlers) HandleHealth(c echo.Context) error {
	runs, failures := h.dispatcher.Stats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"version":       h.version,
		"hooks_enabled": h.dispatcher.Enabled(),
		"hook_runs":     runs,
		"hook_failures": failures,
	})
}
