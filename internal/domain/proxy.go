package domain

import (
	"fmt"
	"log/slog"
)

// Proxy — дескриптор прокси в том виде, как он приходит в задаче.
type Proxy struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ProxyConfig — канонический вид прокси для инструмента автоматизации.
// Username/Password присутствуют только если заданы в источнике.
type ProxyConfig struct {
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// FormatProxy переводит дескриптор прокси в канонический вид.
//
// nil на входе — это "без прокси", не ошибка. Дескриптор без host или
// port считается битым: возвращается "без прокси" с warning в логе —
// проблемы с прокси никогда не роняют родительскую задачу.
// Функция чистая и идемпотентная.
func FormatProxy(p *Proxy) *ProxyConfig {
	if p == nil {
		return nil
	}

	if p.Host == "" || p.Port == 0 {
		slog.Warn("malformed proxy descriptor, proceeding without proxy",
			"host", p.Host,
			"port", p.Port,
		)
		return nil
	}

	cfg := &ProxyConfig{
		Server: fmt.Sprintf("http://%s:%d", p.Host, p.Port),
	}

	if p.Username != "" {
		cfg.Username = p.Username
	}
	if p.Password != "" {
		cfg.Password = p.Password
	}

	return cfg
}
