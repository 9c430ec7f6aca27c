// Package sl содержит вспомогательные атрибуты для логгера slog.
package sl

import "log/slog"

// hashPrefixLen сколько символов хеша попадает в лог.
const hashPrefixLen = 8

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Hash возвращает атрибут "hash" с коротким префиксом хеша, полный хеш в лог не пишется.
func Hash(hash string) slog.Attr {
	if len(hash) > hashPrefixLen {
		hash = hash[:hashPrefixLen]
	}
	return slog.String("hash", hash)
}
