package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/httpx"
)

// Health reports liveness for load balancers and monitoring.
func Health(c echo.Context) error {
	return httpx.Respond(c, http.StatusOK, "Server is running", nil)
}
