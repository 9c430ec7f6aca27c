// Package timefmt задаёт единый формат записи временных меток в хранилище
// и разбор меток, записанных разными производителями данных.
package timefmt

import (
	"errors"
	"strings"
	"time"
)

// Layout формат, в котором сервис пишет метки: UTC, фиксированная ширина,
// поэтому строки сортируются лексикографически в хронологическом порядке.
const Layout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrUnknownFormat строка не соответствует ни одному известному формату.
var ErrUnknownFormat = errors.New("unknown timestamp format")

// naiveLayouts форматы без часового пояса. Такие метки оставались от прежних
// версий сервиса, они интерпретируются в локальной зоне.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Format возвращает метку в формате Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse разбирает метку, перебирая известные форматы в фиксированном порядке:
// RFC 3339 (в том числе Layout), затем форматы без зоны.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnknownFormat
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnknownFormat
}
