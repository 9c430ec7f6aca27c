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

// Stats возвращает агрегированные счётчики для health-check.
func (s *Storage) Stats(ctx context.Context) (models.Stats, error) {
	const op = "storage.Stats"

	var st models.Stats
	var err error
	if st.Users, err = s.CountUsers(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	if st.Signatures, err = s.CountSignatures(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	if st.ScanHistory, err = s.CountScanHistory(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

func (s *Storage) count(ctx context.Context, op, query string) (int64, error) {
	ctx, cancel := s.readCtx(ctx)
	defer cancel()

	var n int64
	if err := s.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}
	return n, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: timefmt.Format(*t), Valid: true}
}
