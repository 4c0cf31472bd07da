package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ScopedTempFile создаёт временный файл с уникальным именем и
// возвращает его путь вместе с функцией освобождения.
//
// Имя строится на uuid, поэтому параллельные задачи никогда не
// получают один и тот же путь. release удаляет файл ровно один раз;
// повторный вызов и удаление уже убранного файла безопасны.
// Вызывающий обязан выполнить release на каждом пути выхода
// (обычно через defer сразу после создания).
func ScopedTempFile(suffix string) (path string, release func(), err error) {
	path = filepath.Join(os.TempDir(), "tikitoki_"+uuid.NewString()+suffix)

	// O_EXCL: коллизия имени — ошибка, а не молчаливая перезапись
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("%w: create temp file: %v", ErrResource, err)
	}
	f.Close()

	var once sync.Once
	release = func() {
		once.Do(func() {
			if _, err := os.Stat(path); err == nil {
				os.Remove(path)
			}
		})
	}

	return path, release, nil
}
