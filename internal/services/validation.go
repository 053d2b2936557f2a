package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors match request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
}

// Validator returns the validator shared by the services and request binding.
func Validator() *validator.Validate {
	return validate
}

// ValidateStruct checks obj against its validate tags and reports the first
// failing field as a *ValidationError. Values that are not structs pass.
func ValidateStruct(obj any) error {
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	element := false
	// Elements reached through dive are named like "tags[3]".
	if i := strings.IndexByte(field, '['); i >= 0 {
		field, element = field[:i], true
	}
	return invalid(field, describe(fe, element))
}

func describe(fe validator.FieldError, element bool) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a URL"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(param), ", ")
	case "len":
		return fmt.Sprintf("must be %s characters", param)
	case "gt":
		if param == "0" {
			return "must be positive"
		}
		return "must be greater than " + param
	case "min", "gte":
		if fe.Kind() == reflect.String {
			if param == "1" {
				return "must not be empty"
			}
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return "must be at least " + param
	case "max", "lte":
		switch {
		case element:
			return fmt.Sprintf("entries must be at most %s characters", param)
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("must be at most %s characters", param)
		case fe.Kind() == reflect.Slice:
			return fmt.Sprintf("must have at most %s entries", param)
		}
		return "must be at most " + param
	}
	return "is invalid"
}
