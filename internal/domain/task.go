package domain

import (
	"encoding/json"
	"fmt"
)

// LoginTask — задача входа в аккаунт TikTok.
//
// Пара username/password необязательна: при её отсутствии воркер
// переключается на вход по QR-коду вместо отказа.
type LoginTask struct {
	TgUserID    int64  `json:"tg_user_id"`
	AccountName string `json:"account_name"`
	Username    string `json:"tiktok_username,omitempty"`
	Password    string `json:"tiktok_password,omitempty"`
	Proxy       *Proxy `json:"proxy,omitempty"`
}

// HasCredentials возвращает true, если заданы явные учётные данные.
func (t LoginTask) HasCredentials() bool {
	return t.Username != "" && t.Password != ""
}

// Validate проверяет обязательные поля задачи.
func (t LoginTask) Validate() error {
	if t.TgUserID == 0 {
		return fmt.Errorf("tg_user_id is required")
	}
	if t.AccountName == "" {
		return fmt.Errorf("account_name is required")
	}
	// учётные данные — пара: либо оба поля, либо ни одного
	if (t.Username == "") != (t.Password == "") {
		return fmt.Errorf("tiktok_username and tiktok_password must be set together")
	}
	return nil
}

// CookieTask — задача импорта куков для аккаунта.
type CookieTask struct {
	TgUserID    int64  `json:"tg_user_id"`
	AccountName string `json:"account_name"`
	CookiesJSON string `json:"cookies_json"`
}

// Validate проверяет обязательные поля задачи.
func (t CookieTask) Validate() error {
	if t.TgUserID == 0 {
		return fmt.Errorf("tg_user_id is required")
	}
	if t.AccountName == "" {
		return fmt.Errorf("account_name is required")
	}
	if t.CookiesJSON == "" {
		return fmt.Errorf("cookies_json is required")
	}
	return nil
}

// Допустимые значения громкости звука при загрузке видео.
const (
	SoundVolMain       = "main"
	SoundVolMix        = "mix"
	SoundVolBackground = "background"
)

// UploadTask — задача публикации видео.
//
// Видео адресуется ключом в S3-бакете и скачивается воркером
// во временный файл перед загрузкой.
type UploadTask struct {
	S3VideoKey        string   `json:"s3_video_key"`
	AccountName       string   `json:"account_name"`
	Username          string   `json:"tiktok_username,omitempty"`
	Password          string   `json:"tiktok_password,omitempty"`
	Description       string   `json:"description"`
	Hashtags          []string `json:"hashtags,omitempty"`
	SoundName         string   `json:"sound_name,omitempty"`
	FavoriteSoundName string   `json:"favorite_sound_name,omitempty"`
	SoundAudVol       string   `json:"sound_aud_vol,omitempty"`
	Proxy             *Proxy   `json:"proxy,omitempty"`
}

// Validate проверяет обязательные поля задачи.
func (t UploadTask) Validate() error {
	if t.S3VideoKey == "" {
		return fmt.Errorf("s3_video_key is required")
	}
	if t.AccountName == "" {
		return fmt.Errorf("account_name is required")
	}
	if t.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch t.SoundAudVol {
	case "", SoundVolMain, SoundVolMix, SoundVolBackground:
	default:
		return fmt.Errorf("sound_aud_vol must be one of main, mix, background; got %q", t.SoundAudVol)
	}
	return nil
}

// Task — входящая задача с валидацией обязательных полей.
type Task interface {
	Validate() error
}

// Decode разбирает тело сообщения в задачу и валидирует её.
//
// Любая проблема — битый JSON, неверный тип поля, отсутствующее
// обязательное поле — возвращается как ErrValidation: такое сообщение
// отбрасывается без ответа.
func Decode[T Task](body []byte) (T, error) {
	var task T
	if err := json.Unmarshal(body, &task); err != nil {
		return task, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := task.Validate(); err != nil {
		return task, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return task, nil
}
