package automation

import (
	"context"

	"github.com/Leo0rg/tikitoki/internal/domain"
)

// Result — структурированный итог операции автоматизации.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginParams — параметры входа по логину и паролю.
type LoginParams struct {
	AccountName string
	Username    string
	Password    string
	Proxy       *domain.ProxyConfig
	CookieFile  string
}

// QRLoginParams — параметры входа по QR-коду.
type QRLoginParams struct {
	AccountName string
	Proxy       *domain.ProxyConfig
	CookieFile  string

	// OnCode вызывается на каждый QR-код, который автоматизация
	// показывает пользователю. Код нужно переслать немедленно:
	// он живёт меньше минуты.
	OnCode func(imageBase64 string)
}

// UploadParams — параметры публикации видео.
type UploadParams struct {
	VideoPath         string
	Description       string
	AccountName       string
	Username          string
	Password          string
	Hashtags          []string
	SoundName         string
	FavoriteSoundName string
	SoundAudVol       string
	Proxy             *domain.ProxyConfig
	CookieFile        string
}

// Automation — внешняя возможность, которая выполняет вход и публикацию
// против самой платформы. Её внутренности воркер не определяет:
// это медленные блокирующие вызовы с чётким контрактом входа/выхода.
type Automation interface {
	// Login выполняет вход по логину и паролю.
	Login(ctx context.Context, p LoginParams) (Result, error)

	// LoginWithQR выполняет вход по QR-коду, пересылая промежуточные
	// коды через p.OnCode до финального результата.
	LoginWithQR(ctx context.Context, p QRLoginParams) (Result, error)

	// Upload публикует видео. Успех — nil, любая ошибка означает,
	// что публикация не состоялась.
	Upload(ctx context.Context, p UploadParams) error
}
