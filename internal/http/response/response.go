package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
)

// Every JSON endpoint answers in the same envelope: {"data": ...} on
// success, {"error": {...}} on failure. The payment webhook is the one
// exception; the gateway expects a bare TRUE/FALSE body.

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type DataEnvelope struct {
	Data any `json:"data"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, DataEnvelope{Data: payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, DataEnvelope{Data: payload})
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Code: code, Message: msg}})
}

// RespondAPIError maps a service error to the envelope. Anything that is
// not an apierr.Error becomes a 500 with the detail hidden.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(ae.Status, ErrorEnvelope{Error: APIError{Code: ae.Code, Message: msg, Reason: ae.Reason}})
}

func AbortError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Code: code, Message: message}})
}

// AbortAPIError is RespondAPIError for middleware: same mapping, but the
// handler chain stops here.
func AbortAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{Error: APIError{Code: ae.Code, Message: msg, Reason: ae.Reason}})
}
