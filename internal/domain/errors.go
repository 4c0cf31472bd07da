package domain

import "errors"

// Ошибки уровня данных.
var (
	// ErrValidation — сообщение не прошло валидацию схемы.
	// Такое сообщение отбрасывается без ответа.
	ErrValidation = errors.New("task validation failed")

	// ErrMalformedExport — экспорт куков не разобрался как JSON.
	// Фатально для всего импорта, не для отдельной записи.
	ErrMalformedExport = errors.New("cookie export is not valid JSON")

	// ErrNoValidCookies — после нормализации не осталось ни одной записи.
	// Ноль выживших — это полный провал импорта, не частичный успех.
	ErrNoValidCookies = errors.New("no valid cookies after normalization")
)
