package handler // HTTP handlers for the booking event consumer

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// ReadinessChecker reports whether a background worker is attached to its
// broker.  *queue.Consumer satisfies it.
type ReadinessChecker interface {
    Connected() bool
}

// Health answers liveness checks with a plain "ok".
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready returns a handler that answers 200 while the checker is connected and
// 503 otherwise, so an orchestrator can tell a live process from one
// still waiting for RabbitMQ.
func Ready(rc ReadinessChecker) echo.HandlerFunc {
    return func(c echo.Context) error {
        if rc == nil || !rc.Connected() {
            return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "waiting for broker"})
        }
        return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
    }
}

// NewHealthServer builds the echo instance serving /healthz and /readyz.
func NewHealthServer(rc ReadinessChecker) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.GET("/healthz", Health)
    e.GET("/readyz", Ready(rc))
    return e
}
