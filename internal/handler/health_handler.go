package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler reports whether the process and its dependencies respond.
type HealthHandler struct {
	required map[string]Check
	optional map[string]Check
}

// NewHealthHandler creates a health handler. A failing required check turns the
// response into 503; optional checks are only reported.
func NewHealthHandler(required, optional map[string]Check) *HealthHandler {
	return &HealthHandler{required: required, optional: optional}
}

// Health godoc
// @Summary Liveness and dependency status
// @Tags infra
// @Produce json
// @Success 200 {object} Envelope{data=map[string]string}
// @Failure 503 {object} Envelope{data=map[string]string}
// @Router /healthz/ [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{"status": "ok"}
	for name, check := range h.required {
		if err := check(ctx); err != nil {
			report[name] = "unavailable"
			report["status"] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	for name, check := range h.optional {
		if err := check(ctx); err != nil {
			report[name] = "unavailable"
			continue
		}
		report[name] = "ok"
	}
	return respond(c, status, report)
}
