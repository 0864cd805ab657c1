// Package validation wraps go-playground/validator with a shared instance and
// translates field errors into the API's VALIDATION_ERROR payload.
//
// Field names in messages come from the json tag, so a failure on
//
//	Score int `json:"score" validate:"min=1,max=5"`
//
// reads "score must be at least 1".
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Code is the error code used for every validation failure.
const Code = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError collects every failed rule of one request.
type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

// APIError is the response shape expected by the HTTP layer.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts the failures into a single API error. One failure keeps
// its own message; several are joined and listed under details.fields.
func (e *RequestValidationError) ToAPIError() *APIError {
	switch len(e.Fields) {
	case 0:
		return &APIError{Code: Code, Message: "Validation failed"}
	case 1:
		f := e.Fields[0]
		return &APIError{
			Code:    Code,
			Message: f.Message,
			Details: map[string]any{"field": f.Field, "tag": f.Tag},
		}
	}

	fields := make([]map[string]any, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = map[string]any{"field": f.Field, "tag": f.Tag, "message": f.Message}
	}
	return &APIError{
		Code:    Code,
		Message: e.Error(),
		Details: map[string]any{"fields": fields},
	}
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// ValidateStruct runs the struct's validate tags. It returns nil on success.
func ValidateStruct(s any) *RequestValidationError {
	return convert(Validator().Struct(s))
}

// ValidateVar validates a single value against tag, reporting it as field.
func ValidateVar(field string, value any, tag string) *RequestValidationError {
	verr := convert(Validator().Var(value, tag))
	if verr == nil {
		return nil
	}
	for i := range verr.Fields {
		verr.Fields[i].Field = field
		verr.Fields[i].Message = message(field, verr.Fields[i].Tag, verr.Fields[i].Param, reflect.TypeOf(value))
	}
	return verr
}

func convert(err error) *RequestValidationError {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe.Field(), fe.Tag(), fe.Param(), fe.Type()),
		}
	}
	return &RequestValidationError{Fields: out}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

var simpleMessages = map[string]string{
	"required": "%s is required",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func message(field, tag, param string, typ reflect.Type) string {
	if tmpl, ok := simpleMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	var unit string
	if typ != nil {
		switch typ.Kind() {
		case reflect.String:
			unit = " characters"
		case reflect.Slice, reflect.Array, reflect.Map:
			unit = " items"
		}
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
