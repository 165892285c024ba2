package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError marks a request that failed DTO validation; the error
// middleware turns it into a 400.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			first := errs[0]
			return &ValidationError{
				Detail: fmt.Sprintf("field %s failed on the '%s' rule", first.Field(), first.Tag()),
			}
		}
		return &ValidationError{Detail: err.Error()}
	}
	return nil
}
