package homework

import "fmt"

const (
	FieldHomeworks   = "homeworks"
	FieldCurrentDate = "current_date"
	FieldStatus      = "status"
	FieldName        = "homework_name"
)

// Record is one homework entry exactly as decoded.
type Record map[string]any

// Response is a payload that passed Validate. Raw is the original mapping;
// nothing in it has been converted or copied.
type Response struct {
	Homeworks   []Record
	CurrentDate any
	Raw         map[string]any
}

// Latest returns the first record, which the API orders newest first.
func (r Response) Latest() (Record, bool) {
	if len(r.Homeworks) == 0 {
		return nil, false
	}
	return r.Homeworks[0], true
}

// Validate checks the payload shape. homeworks is checked before
// current_date so the reported field is deterministic.
func Validate(payload any) (Response, error) {
	raw, ok := payload.(map[string]any)
	if !ok {
		return Response{}, &NotAMappingError{Actual: kindOf(payload)}
	}

	hwRaw, ok := raw[FieldHomeworks]
	if !ok {
		return Response{}, &MissingFieldError{Field: FieldHomeworks}
	}
	date, ok := raw[FieldCurrentDate]
	if !ok {
		return Response{}, &MissingFieldError{Field: FieldCurrentDate}
	}

	list, ok := hwRaw.([]any)
	if !ok {
		return Response{}, &WrongFieldTypeError{Field: FieldHomeworks, Expected: "array", Actual: kindOf(hwRaw)}
	}

	records := make([]Record, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return Response{}, &WrongFieldTypeError{
				Field:    fmt.Sprintf("%s[%d]", FieldHomeworks, i),
				Expected: "object",
				Actual:   kindOf(item),
			}
		}
		records = append(records, Record(m))
	}

	return Response{Homeworks: records, CurrentDate: date, Raw: raw}, nil
}
