package domain

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// SameSite — политика SameSite канонической куки.
type SameSite string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)

// SessionCookie — sentinel "без фиксированного срока" для поля Expires.
const SessionCookie int64 = -1

// Cookie — каноническая запись куки после нормализации.
//
// Формат полей совпадает с тем, что ожидает браузерная автоматизация
// (playwright-style storage state).
type Cookie struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain"`
	Path     string   `json:"path"`
	Secure   bool     `json:"secure"`
	HTTPOnly bool     `json:"httpOnly"`
	Expires  int64    `json:"expires"`
	SameSite SameSite `json:"sameSite"`
}

// Обязательные ключи сырой записи: без любого из них запись отбрасывается.
var requiredCookieKeys = []string{"name", "value", "domain", "path"}

// NormalizeCookies переводит сырой экспорт куков (JSON-массив записей
// произвольного происхождения — браузерные расширения экспортируют
// по-разному) в канонический набор.
//
// Возвращает выжившие записи и количество отброшенных. Ошибка разбора
// JSON фатальна для всего импорта (ErrMalformedExport); отдельная битая
// запись — нет, она просто отбрасывается с warning. Если не выжила ни
// одна запись, импорт считается проваленным целиком (ErrNoValidCookies).
func NormalizeCookies(rawExport string) ([]Cookie, int, error) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(rawExport), &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}

	var cookies []Cookie
	rejected := 0

	for _, rec := range raw {
		if !hasRequiredKeys(rec) {
			slog.Warn("skipping malformed cookie record", "record", rec)
			rejected++
			continue
		}

		cookies = append(cookies, Cookie{
			Name:     stringField(rec, "name"),
			Value:    stringField(rec, "value"),
			Domain:   stringField(rec, "domain"),
			Path:     stringField(rec, "path"),
			Secure:   boolField(rec, "secure"),
			HTTPOnly: boolField(rec, "httpOnly"),
			Expires:  resolveExpiry(rec),
			SameSite: resolveSameSite(rec),
		})
	}

	if len(cookies) == 0 {
		return nil, rejected, ErrNoValidCookies
	}

	return cookies, rejected, nil
}

// hasRequiredKeys проверяет наличие обязательных ключей.
// Пустое значение — не повод отбрасывать запись: куки с пустым
// value встречаются в реальных экспортах.
func hasRequiredKeys(rec map[string]any) bool {
	for _, key := range requiredCookieKeys {
		if v, ok := rec[key]; !ok || v == nil {
			return false
		}
	}
	return true
}

// resolveExpiry определяет срок жизни куки.
//
// Приоритет: явный expirationDate → флаг session → sentinel.
// Запись вообще без полей срока трактуется как сессионная —
// осознанный default для неоднозначного входа.
func resolveExpiry(rec map[string]any) int64 {
	if v, ok := rec["expirationDate"]; ok && v != nil {
		if n, ok := v.(float64); ok {
			return int64(n)
		}
	}
	if boolField(rec, "session") {
		return SessionCookie
	}
	if v, ok := rec["expires"]; ok && v != nil {
		if n, ok := v.(float64); ok {
			return int64(n)
		}
	}
	return SessionCookie
}

// resolveSameSite приводит значение sameSite к закрытому множеству.
//
// null и "no_restriction" → None; Lax/Strict/None проходят как есть;
// всё остальное → Lax как консервативный default.
func resolveSameSite(rec map[string]any) SameSite {
	v, ok := rec["sameSite"]
	if !ok || v == nil {
		return SameSiteNone
	}

	s, _ := v.(string)
	switch s {
	case "no_restriction":
		return SameSiteNone
	case string(SameSiteLax):
		return SameSiteLax
	case string(SameSiteStrict):
		return SameSiteStrict
	case string(SameSiteNone):
		return SameSiteNone
	default:
		return SameSiteLax
	}
}

func stringField(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func boolField(rec map[string]any, key string) bool {
	if v, ok := rec[key].(bool); ok {
		return v
	}
	return false
}
