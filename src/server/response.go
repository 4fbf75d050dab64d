package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"reefing/src/app"
	"reefing/src/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: message})
}

func statusOf(code string) int {
	switch code {
	case app.EUnauthenticated:
		return http.StatusUnauthorized
	case app.ENotFound:
		return http.StatusNotFound
	case app.EForbidden:
		return http.StatusForbidden
	case app.EInvalid, app.EUploadRejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// failWith writes err as an envelope. Errors without a client message are logged and
// answered with fallback.
func failWith(c *gin.Context, err error, fallback string) {
	code := app.ErrorCode(err)
	status := statusOf(code)
	message := app.ErrorMessage(err)
	if status == http.StatusInternalServerError || message == "" {
		logger.FromContext(c.Request.Context()).WithError(err).Error(fallback)
		message = fallback
	}
	_ = c.Error(err)
	fail(c, status, message)
}

// bindJSON decodes the request body into dst and validates it. Missing required
// fields are reported with missing.
func bindJSON(c *gin.Context, dst any, missing string) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var invalid []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return app.Invalid(missing)
			}
			invalid = append(invalid, jsonFieldName(fe))
		}
		return app.Invalid(fmt.Sprintf("Invalid value for: %s", strings.Join(invalid, ", ")))
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return app.Invalid(missing)
	case errors.As(err, &syntaxErr):
		return app.Invalid("Malformed JSON body")
	case errors.As(err, &typeErr):
		return app.Invalid(fmt.Sprintf("Invalid value for: %s", typeErr.Field))
	}
	return app.Invalid("Invalid request body")
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
