// Package domain содержит контракты данных воркера.
//
// Структура:
//   - task.go   — входящие задачи (login, cookies, upload) и их валидация
//   - status.go — статус-ответы, публикуемые обратно боту
//   - proxy.go  — дескриптор прокси и перевод в канонический вид
//   - cookie.go — нормализация экспорта куков в канонические записи
//   - errors.go — ошибки уровня данных
//
// Все типы — value types без побочных эффектов. Валидация выполняется
// на границе (при разборе сообщения), а не внутри обработчиков.
package domain
