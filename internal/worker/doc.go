// Package worker — конвейер обработки задач.
//
// # Обзор
//
// Worker подписывает по одному обработчику на каждую очередь задач
// и живёт до завершения процесса:
//
//   - login_tasks   → handleLogin   → login_status (+ qr_codes)
//   - cookies_tasks → handleCookies → cookie_status
//   - video_tasks   → handleUpload  → upload_status
//
// Каждый обработчик следует одной схеме:
//
//	валидация → захват ресурсов → делегация → ответ → освобождение
//
// Сообщение обрабатывается не более одного раза: внутренних retry нет,
// на каждую принятую задачу публикуется ровно один статус-ответ.
// Сообщение, не прошедшее валидацию, отбрасывается без ответа.
//
// # Ошибки
//
// Любая ошибка обработки принятой задачи ловится на границе
// обработчика и превращается в статус-ответ с success=false; ошибки
// одной задачи никогда не затрагивают другие задачи и не роняют
// процесс. Фатальны только ошибки конфигурации при старте и
// невосстановимая потеря соединения с брокером.
//
// # Ресурсы
//
// Видео скачивается во временный файл с уникальным именем
// (ScopedTempFile); файл удаляется ровно один раз на любом пути
// выхода из обработчика. Соединение с брокером и S3-клиент создаются
// при старте и дальше только читаются — межзадачного разделяемого
// изменяемого состояния нет.
package worker
