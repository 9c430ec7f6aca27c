// Package scanner обходит каталог, считает хеши файлов и сверяет их с базой сигнатур.
package scanner

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// Тип сканирования, попадающий в историю.
const (
	ScanTypeQuick = "quick"
	ScanTypeFull  = "full"
)

// ErrTargetNotFound путь для сканирования не существует.
var ErrTargetNotFound = errors.New("scan target not found")

// Checker проверка хеша по базе сигнатур.
type Checker interface {
	Check(ctx context.Context, hash string) (models.Verdict, error)
}

// Recorder запись итогов сканирования в историю.
type Recorder interface {
	Record(ctx context.Context, req models.ScanRequest) (int64, error)
}

// Digests хеши одного файла в hex.
type Digests struct {
	MD5    string `json:"md5"`
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
}

// FileResult результат проверки одного файла. Err заполнен, если файл не удалось прочитать.
type FileResult struct {
	Path        string  `json:"path"`
	Digests     Digests `json:"digests"`
	Detected    bool    `json:"detected"`
	MalwareName string  `json:"malware_name,omitempty"`
	RiskLevel   int     `json:"risk_level,omitempty"`
	Err         error   `json:"-"`
}

// Report итог сканирования.
type Report struct {
	Target          string        `json:"target"`
	ScanType        string        `json:"scan_type"`
	Files           []FileResult  `json:"files"`
	FilesScanned    int           `json:"files_scanned"`
	ThreatsDetected int           `json:"threats_detected"`
	Truncated       bool          `json:"truncated"`
	Duration        time.Duration `json:"duration"`
	HistoryID       int64         `json:"history_id,omitempty"`
}

// Scanner локальный сканер.
type Scanner struct {
	checker  Checker
	recorder Recorder
	maxFiles int
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Scanner. recorder может быть nil, тогда история не пишется.
func New(checker Checker, recorder Recorder, maxFiles int, log *slog.Logger) *Scanner {
	return &Scanner{
		checker:  checker,
		recorder: recorder,
		maxFiles: maxFiles,
		log:      log,
		now:      time.Now,
	}
}

// Scan проверяет все обычные файлы под target (не больше maxFiles) и,
// если задан email, один раз пишет итог в историю сканирований.
func (s *Scanner) Scan(ctx context.Context, email, target, scanType string) (*Report, error) {
	const op = "scanner.Scan"
	log := s.log.With(slog.String("op", op), slog.String("target", target))

	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrTargetNotFound, target)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := s.now()
	report := &Report{Target: target, ScanType: scanType, Files: []FileResult{}}

	errLimit := errors.New("file limit reached")
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// недоступный каталог пропускаем, обход продолжается
			log.Warn("skip unreadable path", slog.String("path", path), sl.Err(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if s.maxFiles > 0 && report.FilesScanned >= s.maxFiles {
			return errLimit
		}

		res := s.scanFile(ctx, path)
		report.Files = append(report.Files, res)
		report.FilesScanned++
		if res.Detected {
			report.ThreatsDetected++
			log.Warn("threat detected",
				slog.String("path", path),
				slog.String("malware", res.MalwareName),
				slog.Int("risk_level", res.RiskLevel),
			)
		}
		return nil
	})
	switch {
	case errors.Is(err, errLimit):
		report.Truncated = true
		log.Warn("scan stopped at file limit", slog.Int("max_files", s.maxFiles))
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	report.Duration = s.now().Sub(start)

	if email != "" && s.recorder != nil {
		id, err := s.recorder.Record(ctx, models.ScanRequest{
			Email:           email,
			TargetPath:      target,
			ScanType:        scanType,
			FilesScanned:    report.FilesScanned,
			ThreatsDetected: report.ThreatsDetected,
			DurationSeconds: report.Duration.Seconds(),
		})
		if err != nil {
			return report, fmt.Errorf("%s: %w", op, err)
		}
		report.HistoryID = id
	}

	log.Info("scan finished",
		slog.Int("files_scanned", report.FilesScanned),
		slog.Int("threats_detected", report.ThreatsDetected),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// scanFile считает хеши файла и проверяет каждый. Первое совпадение определяет вердикт.
func (s *Scanner) scanFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	digests, err := HashFile(path)
	if err != nil {
		s.log.Warn("failed to hash file", slog.String("path", path), sl.Err(err))
		res.Err = err
		return res
	}
	res.Digests = digests

	for _, h := range []string{digests.MD5, digests.SHA1, digests.SHA256} {
		v, err := s.checker.Check(ctx, h)
		if err != nil {
			s.log.Warn("signature lookup failed", slog.String("path", path), sl.Hash(h), sl.Err(err))
			res.Err = err
			continue
		}
		if v.IsMalicious {
			res.Detected = true
			res.RiskLevel = v.RiskLevel
			if v.MalwareName != nil {
				res.MalwareName = *v.MalwareName
			}
			break
		}
	}
	return res
}

// HashFile читает файл один раз и возвращает MD5, SHA-1 и SHA-256.
func HashFile(path string) (Digests, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digests{}, err
	}
	defer f.Close()

	m, s1, s256 := md5.New(), sha1.New(), sha256.New()
	if _, err := io.Copy(io.MultiWriter(m, s1, s256), f); err != nil {
		return Digests{}, err
	}
	return Digests{
		MD5:    hex.EncodeToString(m.Sum(nil)),
		SHA1:   hex.EncodeToString(s1.Sum(nil)),
		SHA256: hex.EncodeToString(s256.Sum(nil)),
	}, nil
}
