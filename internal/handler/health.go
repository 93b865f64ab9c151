package handler // handler contains the HTTP handlers of the service

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and monitoring.
// It returns a plain "ok" with HTTP 200 and touches no data store.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
