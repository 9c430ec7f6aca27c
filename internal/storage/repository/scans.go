package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/timefmt"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

// AppendScanHistory добавляет запись в историю сканирований и возвращает её ID.
func (s *Storage) AppendScanHistory(ctx context.Context, entry models.ScanEntry) (int64, error) {
	const op = "storage.AppendScanHistory"

	query := `INSERT INTO scan_history (email, target_path, scan_type, files_scanned,
			      threats_detected, duration_seconds, scan_date)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	scanDate := entry.ScanDate
	if scanDate.IsZero() {
		scanDate = time.Now()
	}

	var id int64
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query,
			entry.Email, entry.TargetPath, entry.ScanType, entry.FilesScanned,
			entry.ThreatsDetected, entry.DurationSeconds, timefmt.Format(scanDate))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListScanHistory возвращает последние limit записей пользователя, новые первыми.
func (s *Storage) ListScanHistory(ctx context.Context, email string, limit int) ([]models.ScanEntry, error) {
	const op = "storage.ListScanHistory"
	ctx, cancel := s.readCtx(ctx)
	defer cancel()

	query := `SELECT id, email, target_path, scan_type, files_scanned,
			      threats_detected, duration_seconds, scan_date
			  FROM scan_history
			  WHERE email = ?
			  ORDER BY scan_date DESC, id DESC
			  LIMIT ?`

	rows, err := s.DB.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.ScanEntry, 0)
	for rows.Next() {
		var e models.ScanEntry
		var scanDate string
		if err = rows.Scan(&e.ID, &e.Email, &e.TargetPath, &e.ScanType, &e.FilesScanned,
			&e.ThreatsDetected, &e.DurationSeconds, &scanDate); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrTransaction, err)
		}
		if t, perr := timefmt.Parse(scanDate); perr == nil {
			e.ScanDate = t
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrTransaction, err)
	}
	return result, nil
}

// CountScanHistory возвращает количество записей истории сканирований.
func (s *Storage) CountScanHistory(ctx context.Context) (int64, error) {
	return s.count(ctx, "storage.CountScanHistory", `SELECT COUNT(*) FROM scan_history`)
}
