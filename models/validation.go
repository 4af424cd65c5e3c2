package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/utils"
)

var validate = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs the struct tags of input and reports failures as field errors.
func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return forms.FieldErrors(utils.ProcessValidationErrors(err))
	}
	return nil
}
