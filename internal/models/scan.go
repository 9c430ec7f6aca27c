package models

import (
	"regexp"
	"time"
)

// EmailRe формат адреса электронной почты, принимаемый сервисом.
var EmailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail проверяет адрес электронной почты.
func ValidEmail(s string) bool {
	return EmailRe.MatchString(s)
}

// ScanEntry запись истории сканирований. Ссылка на email не проверяется:
// записи для неизвестных пользователей допустимы.
type ScanEntry struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	TargetPath      string    `json:"target_path"`
	ScanType        string    `json:"scan_type"`
	FilesScanned    int       `json:"files_scanned"`
	ThreatsDetected int       `json:"threats_detected"`
	DurationSeconds float64   `json:"duration_seconds"`
	ScanDate        time.Time `json:"scan_date"`
}

// ScanRequest данные запроса на добавление записи в историю сканирований.
type ScanRequest struct {
	Email           string  `json:"email" validate:"required,account_email"`
	TargetPath      string  `json:"target_path" validate:"required,max=4096"`
	ScanType        string  `json:"scan_type" validate:"required,max=64"`
	FilesScanned    int     `json:"files_scanned" validate:"gte=0"`
	ThreatsDetected int     `json:"threats_detected" validate:"gte=0"`
	DurationSeconds float64 `json:"duration_seconds" validate:"gte=0"`
}

// Stats агрегированные счётчики хранилища для health-check.
type Stats struct {
	Users       int64
	Signatures  int64
	ScanHistory int64
}
