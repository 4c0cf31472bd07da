package automation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/Leo0rg/tikitoki/internal/domain"
)

// Runner — адаптер к внешнему инструменту автоматизации.
//
// Инструмент вызывается как подпроцесс: запрос уходит JSON'ом на stdin,
// события и результат приходят JSON-строками на stdout. Отмена
// контекста убивает подпроцесс.
type Runner struct {
	bin    string
	logger *slog.Logger
}

// NewRunner создаёт адаптер для бинаря bin.
func NewRunner(bin string, logger *slog.Logger) *Runner {
	return &Runner{bin: bin, logger: logger}
}

// request — JSON-запрос к инструменту.
type request struct {
	Mode              string              `json:"mode"` // login | qr_login | upload
	AccountName       string              `json:"account_name"`
	Username          string              `json:"tiktok_username,omitempty"`
	Password          string              `json:"tiktok_password,omitempty"`
	VideoPath         string              `json:"video_path,omitempty"`
	Description       string              `json:"description,omitempty"`
	Hashtags          []string            `json:"hashtags,omitempty"`
	SoundName         string              `json:"sound_name,omitempty"`
	FavoriteSoundName string              `json:"favorite_sound_name,omitempty"`
	SoundAudVol       string              `json:"sound_aud_vol,omitempty"`
	Proxy             *domain.ProxyConfig `json:"proxy,omitempty"`
	CookieFile        string              `json:"cookie_file,omitempty"`
	Headless          bool                `json:"headless"`
	Stealth           bool                `json:"stealth,omitempty"`
}

// event — JSON-строка на stdout инструмента.
type event struct {
	Event   string `json:"event"` // "qr" | "result"
	Image   string `json:"image,omitempty"`
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// Login выполняет вход по логину и паролю.
// Браузер при входе видимый: платформа чаще пускает не-headless сессии.
func (r *Runner) Login(ctx context.Context, p LoginParams) (Result, error) {
	return r.run(ctx, request{
		Mode:        "login",
		AccountName: p.AccountName,
		Username:    p.Username,
		Password:    p.Password,
		Proxy:       p.Proxy,
		CookieFile:  p.CookieFile,
		Headless:    false,
	}, nil)
}

// LoginWithQR выполняет вход по QR-коду.
func (r *Runner) LoginWithQR(ctx context.Context, p QRLoginParams) (Result, error) {
	return r.run(ctx, request{
		Mode:        "qr_login",
		AccountName: p.AccountName,
		Proxy:       p.Proxy,
		CookieFile:  p.CookieFile,
		Headless:    false,
	}, p.OnCode)
}

// Upload публикует видео.
func (r *Runner) Upload(ctx context.Context, p UploadParams) error {
	res, err := r.run(ctx, request{
		Mode:              "upload",
		AccountName:       p.AccountName,
		Username:          p.Username,
		Password:          p.Password,
		VideoPath:         p.VideoPath,
		Description:       p.Description,
		Hashtags:          p.Hashtags,
		SoundName:         p.SoundName,
		FavoriteSoundName: p.FavoriteSoundName,
		SoundAudVol:       p.SoundAudVol,
		Proxy:             p.Proxy,
		CookieFile:        p.CookieFile,
		Headless:          true,
		Stealth:           true,
	}, nil)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("upload failed: %s", res.Message)
	}
	return nil
}

// run запускает подпроцесс и читает события до результата.
func (r *Runner) run(ctx context.Context, req request, onCode func(string)) (Result, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.bin, req.Mode)
	cmd.Stdin = bytes.NewReader(input)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", r.bin, err)
	}

	var result *Result

	scanner := bufio.NewScanner(stdout)
	// QR-коды приходят как base64 PNG, строки бывают длинные
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			r.logger.Debug("ignoring non-JSON output line", "bin", r.bin)
			continue
		}

		switch ev.Event {
		case "qr":
			if onCode != nil {
				onCode(ev.Image)
			}
		case "result":
			result = &Result{Success: ev.Success, Message: ev.Message}
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%s exited: %w, stderr: %s", r.bin, err, stderr.String())
	}

	if result == nil {
		return Result{}, fmt.Errorf("%s produced no result event", r.bin)
	}

	return *result, nil
}
