package service

import (
	"reflect"
	"strings"

	"github.com/geocoder89/collegeevents/internal/apperr"
	"github.com/go-playground/validator/v10"
)

// Same tag name gin binds with, so HTTP and service validation share rules.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	// report json names so errors line up with what clients sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

func validateStruct(message string, req any) error {
	if err := validate.Struct(req); err != nil {
		return apperr.Wrap(apperr.KindValidation, message, err)
	}
	return nil
}

func normalizeText(s string) string {
	return strings.TrimSpace(s)
}
