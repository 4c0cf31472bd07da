package domain

// LoginStatus — итог обработки задачи входа.
// Ровно один такой ответ публикуется в login_status на каждую
// принятую задачу.
type LoginStatus struct {
	TgUserID    int64  `json:"tg_user_id"`
	AccountName string `json:"account_name"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// CookieStatus — итог импорта куков.
// Публикуется в cookie_status.
type CookieStatus struct {
	TgUserID    int64  `json:"tg_user_id"`
	AccountName string `json:"account_name"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// UploadStatus — итог публикации видео.
// Публикуется в upload_status.
type UploadStatus struct {
	AccountName string `json:"account_name"`
	S3VideoKey  string `json:"s3_video_key"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// QRCode — промежуточное событие входа по QR-коду.
//
// Это не финальный статус: код пересылается пользователю сразу,
// как только автоматизация его получила, а LoginStatus приходит позже.
type QRCode struct {
	TgUserID    int64  `json:"tg_user_id"`
	AccountName string `json:"account_name"`
	ImageBase64 string `json:"image_base64"`
}
