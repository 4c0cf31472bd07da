// Package cookies сохраняет нормализованные куки на диск.
//
// Хранилище — обычные JSON-файлы вида TK_cookies_<account>.json:
// именно с диска их читает внешний инструмент браузерной автоматизации,
// поэтому никакая БД здесь не подходит.
package cookies

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Leo0rg/tikitoki/internal/domain"
)

// Store — файловое хранилище куков, по файлу на аккаунт.
type Store struct {
	dir string
}

// NewStore создаёт хранилище в каталоге dir (создаётся при необходимости).
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cookie dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path возвращает путь к куки-файлу аккаунта.
func (s *Store) Path(account string) string {
	return filepath.Join(s.dir, "TK_cookies_"+sanitize(account)+".json")
}

// Save записывает канонический набор куков аккаунта.
//
// Запись идёт во временный файл с последующим rename, чтобы
// автоматизация никогда не увидела полузаписанный JSON.
func (s *Store) Save(account string, cookies []domain.Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	path := s.Path(account)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename cookie file: %w", err)
	}

	return nil
}

// Load читает сохранённый набор куков аккаунта.
func (s *Store) Load(account string) ([]domain.Cookie, error) {
	data, err := os.ReadFile(s.Path(account))
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var cookies []domain.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie file: %w", err)
	}

	return cookies, nil
}

// sanitize убирает из имени аккаунта символы, опасные для имени файла.
func sanitize(account string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		default:
			return r
		}
	}, account)
}
