package worker

import "errors"

// Ошибки обработки задач. Обе ловятся на границе обработчика
// и превращаются в статус-ответ, наружу не выходят.
var (
	// ErrResource — не удалось получить ресурс задачи
	// (временный файл, скачивание видео из хранилища).
	ErrResource = errors.New("resource acquisition failed")

	// ErrDelegation — внешняя автоматизация завершилась ошибкой.
	ErrDelegation = errors.New("automation delegation failed")
)
