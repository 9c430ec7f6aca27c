package models

import (
	"regexp"
	"strings"
)

const (
	// MinRiskLevel минимальный уровень риска сигнатуры.
	MinRiskLevel = 1
	// MaxRiskLevel максимальный уровень риска сигнатуры.
	MaxRiskLevel = 10
	// DefaultRiskLevel уровень риска по умолчанию для новых сигнатур.
	DefaultRiskLevel = 5
	// DefaultMalwareName имя по умолчанию для новых сигнатур.
	DefaultMalwareName = "Unknown"
	// MaxMalwareNameLen максимальная длина имени вредоноса.
	MaxMalwareNameLen = 255
)

var hexRe = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// Signature известная сигнатура вредоносного файла.
type Signature struct {
	HashValue   string `json:"hash"`
	MalwareName string `json:"malware_name"`
	RiskLevel   int    `json:"risk_level"`
}

// Verdict результат проверки хеша по базе сигнатур.
type Verdict struct {
	Hash        string  `json:"hash"`
	IsMalicious bool    `json:"is_malicious"`
	MalwareName *string `json:"malware_name"`
	RiskLevel   int     `json:"risk_level"`
}

// ValidHash проверяет, что строка является hex-дайджестом MD5 (32), SHA-1 (40) или SHA-256 (64).
func ValidHash(s string) bool {
	switch len(s) {
	case 32, 40, 64:
		return hexRe.MatchString(s)
	default:
		return false
	}
}

// NormalizeHash приводит хеш к нижнему регистру.
func NormalizeHash(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
