package poller

import (
	"context"
	"errors"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/practicum"
)

// Kind groups cycle failures for logs and the journal.
type Kind string

const (
	KindNone       Kind = ""
	KindNetwork    Kind = "network"
	KindStatus     Kind = "status"
	KindPayload    Kind = "payload"
	KindValidation Kind = "validation"
	KindDomain     Kind = "domain"
	KindUnknown    Kind = "unknown"
)

// Classify maps an error from one cycle to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, practicum.ErrConnection),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case errors.Is(err, practicum.ErrInvalidStatus):
		return KindStatus
	case errors.Is(err, practicum.ErrMalformedPayload):
		return KindPayload
	case errors.Is(err, homework.ErrNotAMapping),
		errors.Is(err, homework.ErrWrongFieldType),
		errors.Is(err, errResponseField):
		return KindValidation
	case errors.Is(err, homework.ErrUnknownVerdict),
		errors.Is(err, homework.ErrMissingField):
		return KindDomain
	default:
		return KindUnknown
	}
}

// errResponseField marks a MissingFieldError raised by Validate rather than
// Format, so a response without homeworks is not mistaken for a bad record.
var errResponseField = errors.New("invalid api response")
