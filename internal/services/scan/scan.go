// Package scan ведёт историю сканирований пользователей.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// HistoryLimit сколько последних записей возвращает List.
const HistoryLimit = 50

// Repository методы хранилища истории.
type Repository interface {
	AppendScanHistory(ctx context.Context, entry models.ScanEntry) (int64, error)
	ListScanHistory(ctx context.Context, email string, limit int) ([]models.ScanEntry, error)
}

// Service запись и чтение истории сканирований.
type Service struct {
	repo         Repository
	maxScanFiles int
	log          *slog.Logger
	now          func() time.Time
}

// New создаёт Service. maxScanFiles ограничивает files_scanned одной записи.
func New(repo Repository, maxScanFiles int, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		maxScanFiles: maxScanFiles,
		log:          log,
		now:          time.Now,
	}
}

// Record добавляет запись. Email не обязан принадлежать известному пользователю.
func (s *Service) Record(ctx context.Context, req models.ScanRequest) (int64, error) {
	const op = "scan.Record"
	log := s.log.With(slog.String("op", op), slog.String("email", req.Email))

	files := req.FilesScanned
	if s.maxScanFiles > 0 && files > s.maxScanFiles {
		log.Warn("files_scanned capped", slog.Int("requested", files), slog.Int("max", s.maxScanFiles))
		files = s.maxScanFiles
	}

	id, err := s.repo.AppendScanHistory(ctx, models.ScanEntry{
		Email:           req.Email,
		TargetPath:      req.TargetPath,
		ScanType:        req.ScanType,
		FilesScanned:    files,
		ThreatsDetected: req.ThreatsDetected,
		DurationSeconds: req.DurationSeconds,
		ScanDate:        s.now(),
	})
	if err != nil {
		log.Error("failed to record scan", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("scan recorded", slog.Int64("id", id), slog.String("scan_type", req.ScanType),
		slog.Int("files_scanned", files), slog.Int("threats_detected", req.ThreatsDetected))
	return id, nil
}

// List возвращает последние HistoryLimit записей пользователя, новые первыми.
func (s *Service) List(ctx context.Context, email string) ([]models.ScanEntry, error) {
	const op = "scan.List"

	entries, err := s.repo.ListScanHistory(ctx, email, HistoryLimit)
	if err != nil {
		s.log.Error("failed to list scan history", slog.String("op", op), slog.String("email", email), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}
