package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omnikit/catalog-composition-service/internal/apperr"
)

type APIError struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps the application error taxonomy onto an HTTP status and
// a uniform error envelope.
func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(apperr.HTTPStatus(err), ErrorEnvelope{
		Error: APIError{
			Message:  msg,
			Category: apperr.CategoryOf(err),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
