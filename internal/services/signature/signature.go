// Package signature проверяет хеши файлов по базе сигнатур и пополняет её.
package signature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

// ErrInvalidHash хеш не является hex-дайджестом длины 32, 40 или 64.
var ErrInvalidHash = errors.New("invalid hash")

// ErrInvalidSignature имя или уровень риска вне допустимых границ.
var ErrInvalidSignature = errors.New("invalid signature")

// Repository методы хранилища сигнатур.
type Repository interface {
	GetSignature(ctx context.Context, hash string) (*models.Signature, error)
	PutSignature(ctx context.Context, sig models.Signature) error
}

// Cache кеш вердиктов.
type Cache interface {
	Get(ctx context.Context, hash string) (models.Verdict, bool, error)
	Set(ctx context.Context, hash string, v models.Verdict) error
	Len(ctx context.Context) (int, error)
}

// CacheObserver получает результат каждого обращения к кешу ("hit", "miss", "error").
type CacheObserver func(result string)

// Service проверка и добавление сигнатур.
type Service struct {
	repo    Repository
	cache   Cache
	observe CacheObserver
	log     *slog.Logger
}

// New создаёт Service. observe может быть nil.
func New(repo Repository, cache Cache, observe CacheObserver, log *slog.Logger) *Service {
	if observe == nil {
		observe = func(string) {}
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		observe: observe,
		log:     log,
	}
}

// Check ищет хеш в хранилище.
func (s *Service) Check(ctx context.Context, hash string) (models.Verdict, error) {
	const op = "signature.Check"

	hash = models.NormalizeHash(hash)
	if !models.ValidHash(hash) {
		return models.Verdict{}, fmt.Errorf("%s: %w", op, ErrInvalidHash)
	}

	sig, err := s.repo.GetSignature(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Verdict{Hash: hash}, nil
	}
	if err != nil {
		s.log.Error("failed to check hash", slog.String("op", op), sl.Hash(hash), sl.Err(err))
		return models.Verdict{}, fmt.Errorf("%s: %w", op, err)
	}

	name := sig.MalwareName
	s.log.Info("known signature matched", slog.String("op", op), sl.Hash(hash), slog.Int("risk_level", sig.RiskLevel))
	return models.Verdict{
		Hash:        hash,
		IsMalicious: true,
		MalwareName: &name,
		RiskLevel:   sig.RiskLevel,
	}, nil
}

// CheckCached сначала смотрит в кеш, при промахе идёт в хранилище и кладёт вердикт в кеш.
// Ошибки кеша не прерывают проверку. Второй результат сообщает, был ли вердикт взят из кеша.
func (s *Service) CheckCached(ctx context.Context, hash string) (models.Verdict, bool, error) {
	const op = "signature.CheckCached"
	log := s.log.With(slog.String("op", op))

	hash = models.NormalizeHash(hash)
	if !models.ValidHash(hash) {
		return models.Verdict{}, false, fmt.Errorf("%s: %w", op, ErrInvalidHash)
	}

	v, found, err := s.cache.Get(ctx, hash)
	switch {
	case err != nil:
		s.observe("error")
		log.Warn("cache lookup failed", sl.Hash(hash), sl.Err(err))
	case found:
		s.observe("hit")
		return v, true, nil
	default:
		s.observe("miss")
	}

	v, err = s.Check(ctx, hash)
	if err != nil {
		return models.Verdict{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, hash, v); err != nil {
		log.Warn("failed to cache verdict", sl.Hash(hash), sl.Err(err))
	}
	return v, false, nil
}

// Add добавляет сигнатуру или заменяет существующую с тем же хешем.
// Пустое имя заменяется на models.DefaultMalwareName, нулевой риск на models.DefaultRiskLevel.
func (s *Service) Add(ctx context.Context, sig models.Signature) error {
	const op = "signature.Add"

	sig.HashValue = models.NormalizeHash(sig.HashValue)
	if !models.ValidHash(sig.HashValue) {
		return fmt.Errorf("%s: %w", op, ErrInvalidHash)
	}
	if sig.MalwareName == "" {
		sig.MalwareName = models.DefaultMalwareName
	}
	if sig.RiskLevel == 0 {
		sig.RiskLevel = models.DefaultRiskLevel
	}
	if len(sig.MalwareName) > models.MaxMalwareNameLen {
		return fmt.Errorf("%s: %w: malware name longer than %d", op, ErrInvalidSignature, models.MaxMalwareNameLen)
	}
	if sig.RiskLevel < models.MinRiskLevel || sig.RiskLevel > models.MaxRiskLevel {
		return fmt.Errorf("%s: %w: risk level %d out of range", op, ErrInvalidSignature, sig.RiskLevel)
	}

	if err := s.repo.PutSignature(ctx, sig); err != nil {
		s.log.Error("failed to add signature", slog.String("op", op), sl.Hash(sig.HashValue), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("signature added", slog.String("op", op), sl.Hash(sig.HashValue),
		slog.String("malware_name", sig.MalwareName), slog.Int("risk_level", sig.RiskLevel))
	return nil
}

// CacheSize количество записей в кеше. При ошибке кеша возвращает 0.
func (s *Service) CacheSize(ctx context.Context) int {
	n, err := s.cache.Len(ctx)
	if err != nil {
		s.log.Warn("failed to read cache size", slog.String("op", "signature.CacheSize"), sl.Err(err))
		return 0
	}
	return n
}
