package httpx

import "github.com/labstack/echo/v4"

// Respond writes a success envelope with the given status, message and
// payload.
func Respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}
