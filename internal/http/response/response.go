package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// FlatError is the body of the video proxy routes: {"error": "<message>"}.
type FlatError struct {
	Error string `json:"error"`
}

// ErrorCodeKey is the gin context key holding the code of the last error
// envelope written for the request.
const ErrorCodeKey = "contentpilot.error_code"

func RespondError(c *gin.Context, status int, code string, err error) {
	if code != "" {
		c.Set(ErrorCodeKey, code)
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps err through apierr. Errors without a mapping become a
// 500 with a generic message so internals never reach the client.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.From(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, ae.Code, ae.Err)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
}

func RespondFlatError(c *gin.Context, status int, msg string) {
	c.JSON(status, FlatError{Error: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
