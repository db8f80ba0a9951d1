package httpx

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/apperr"
)

// Error writes an engine error as the JSON error body the API promises.
// Unexpected errors are logged with detail and surfaced as a generic 500.
func Error(c echo.Context, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		body := echo.Map{"error": ae.Message}
		if ae.Kind == apperr.KindRegistrationRequired {
			body["requiresRegistration"] = true
		}
		return c.JSON(apperr.Status(err), body)
	}
	log.Printf("[%s %s] internal error: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
}

// Validator adapts go-playground/validator to echo's Validator interface
// so handlers can call c.Validate on tagged request structs.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
