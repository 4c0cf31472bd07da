// Package automation определяет контракт внешней автоматизации TikTok
// и адаптер к ней.
//
// Сама автоматизация (браузер, обход антибота, страница загрузки) —
// внешний инструмент; воркер знает только три операции: вход по паролю,
// вход по QR-коду и публикация видео. Адаптер Runner гоняет JSON через
// stdin/stdout подпроцесса.
package automation
