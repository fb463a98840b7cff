package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// messageTag on a struct field replaces every rule message for that field.
const messageTag = "message"

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"max":      "Must not exceed %s characters",
	"min":      "Must be at least %s characters",
}

func messageFor(fe validator.FieldError) string {
	format, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, fe.Param())
	}
	return format
}

// fieldMeta returns the JSON name and the message override of a struct field.
func fieldMeta(structType reflect.Type, fieldName string) (jsonName, override string) {
	if structType == nil {
		return fieldName, ""
	}
	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName, ""
	}

	jsonName, _, _ = strings.Cut(field.Tag.Get("json"), ",")
	if jsonName == "" || jsonName == "-" {
		jsonName = fieldName
	}
	return jsonName, field.Tag.Get(messageTag)
}

func structTypeOf(model any) reflect.Type {
	if model == nil {
		return nil
	}
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// FormatValidationErrors turns validator field errors on model into
// client-facing messages keyed by JSON field name. Other errors yield nil.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	structType := structTypeOf(model)
	formatted := make([]ValidationErrorResponse, 0, len(validationErrors))

	for _, fe := range validationErrors {
		jsonName, override := fieldMeta(structType, fe.StructField())

		message := override
		if message == "" {
			message = messageFor(fe)
		}
		formatted = append(formatted, ValidationErrorResponse{Field: jsonName, Message: message})
	}

	return formatted
}

// FirstValidationMessage returns the message of the first failed rule, or
// fallback when err carries no field errors.
func FirstValidationMessage(err error, model any, fallback string) string {
	if formatted := FormatValidationErrors(err, model); len(formatted) > 0 {
		return formatted[0].Message
	}
	return fallback
}
