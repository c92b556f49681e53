package homework

import "fmt"

// Placeholder is sent instead of a formatted verdict when homeworks is empty.
const Placeholder = "Обновлений в ДЗ пока нет"

const messageTemplate = "Изменился статус проверки работы \"%s\". %s"

var verdicts = map[string]string{
	"approved":  "Работа проверена: ревьюеру всё понравилось. Ура!",
	"reviewing": "Работа взята на проверку ревьюером.",
	"rejected":  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the display text for a status code.
func Verdict(status string) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// Format renders the status-change message for rec.
func Format(rec Record) (string, error) {
	status, ok := rec[FieldStatus]
	if !ok {
		return "", &MissingFieldError{Field: FieldStatus}
	}
	name, ok := rec[FieldName]
	if !ok {
		return "", &MissingFieldError{Field: FieldName}
	}

	code, ok := status.(string)
	if !ok {
		return "", &UnknownVerdictError{Code: status}
	}
	verdict, ok := Verdict(code)
	if !ok {
		return "", &UnknownVerdictError{Code: code}
	}
	return fmt.Sprintf(messageTemplate, fmt.Sprint(name), verdict), nil
}
