package repository

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// GetSignature ищет сигнатуру по хешу. Если хеш неизвестен, возвращается storage.ErrNotFound.
func (s *Storage) GetSignature(ctx context.Context, hash string) (*models.Signature, error) {
	const op = "storage.GetSignature"
	ctx, cancel := s.readCtx(ctx)
	defer cancel()

	query := `SELECT hash_value, malware_name, risk_level
			  FROM malware_hashes
			  WHERE hash_value = ?`

	var sig models.Signature
	err := s.DB.QueryRowContext(ctx, query, hash).Scan(&sig.HashValue, &sig.MalwareName, &sig.RiskLevel)
	if err != nil {
		return nil, readErr(op, err)
	}
	return &sig, nil
}

// PutSignature добавляет сигнатуру или заменяет существующую с тем же хешем.
func (s *Storage) PutSignature(ctx context.Context, sig models.Signature) error {
	const op = "storage.PutSignature"

	query := `INSERT INTO malware_hashes (hash_value, malware_name, risk_level)
			  VALUES (?, ?, ?)
			  ON CONFLICT (hash_value) DO UPDATE SET
			      malware_name = excluded.malware_name,
			      risk_level = excluded.risk_level`

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, sig.HashValue, sig.MalwareName, sig.RiskLevel)
		return err
	})
}

// CountSignatures возвращает количество известных сигнатур.
func (s *Storage) CountSignatures(ctx context.Context) (int64, error) {
	return s.count(ctx, "storage.CountSignatures", `SELECT COUNT(*) FROM malware_hashes`)
}
