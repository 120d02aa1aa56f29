package folio

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// response is the envelope returned by every mutating endpoint.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type messageRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

func reply(c echo.Context, code int, ok bool, msg string) error {
	return c.JSON(code, response{Success: ok, Message: msg})
}

func replyData(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, response{Success: true, Message: msg, Data: data})
}
