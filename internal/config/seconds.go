package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Seconds длительность, которую можно задать целым числом секунд ("300")
// или в записи time.Duration ("5m").
type Seconds time.Duration

// UnmarshalText разбирает значение из переменной окружения или YAML.
func (s *Seconds) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return fmt.Errorf("negative duration %q", raw)
		}
		*s = Seconds(time.Duration(n) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*s = Seconds(d)
	return nil
}

// Duration возвращает значение как time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

func (s Seconds) String() string {
	return time.Duration(s).String()
}
