package homework

import (
	"errors"
	"fmt"
)

var (
	ErrNotAMapping    = errors.New("payload is not a mapping")
	ErrMissingField   = errors.New("missing field")
	ErrWrongFieldType = errors.New("wrong field type")
	ErrUnknownVerdict = errors.New("unknown verdict")
)

type NotAMappingError struct {
	Actual string
}

func (e *NotAMappingError) Error() string {
	return fmt.Sprintf("api response is %s, expected an object", e.Actual)
}

func (e *NotAMappingError) Unwrap() error { return ErrNotAMapping }

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

type WrongFieldTypeError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *WrongFieldTypeError) Error() string {
	return fmt.Sprintf("field %q is %s, expected %s", e.Field, e.Actual, e.Expected)
}

func (e *WrongFieldTypeError) Unwrap() error { return ErrWrongFieldType }

// UnknownVerdictError carries the raw status value, which may not be a string.
type UnknownVerdictError struct {
	Code any
}

func (e *UnknownVerdictError) Error() string {
	return fmt.Sprintf("unknown homework status %v", e.Code)
}

func (e *UnknownVerdictError) Unwrap() error { return ErrUnknownVerdict }

// kindOf names a decoded JSON value the way the API documentation does.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, interface{ Int64() (int64, error) }:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
