package serverutils

import (
	"github.com/go-playground/validator/v10"

	"org-diagnostics-be/internal/pkg/apperror"
)

var validate = validator.New()

// ValidateRequest checks struct tags and converts violations into the
// invalid-input classification so the error middleware answers 400.
func ValidateRequest(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return apperror.Wrap(apperror.CodeInvalidInput, "request validation failed", err)
	}
	return nil
}
