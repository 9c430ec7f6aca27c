// Package repository реализует файловое хранилище на основе SQLite
// для пользователей-подписчиков, сигнатур вредоносных файлов и истории сканирований.
//
// Каждая запись выполняется одной транзакцией. Получение соединения ограничено
// по времени: при превышении возвращается storage.ErrConnection, а не зависание.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	// Регистрация драйвера sqlite для использования с database/sql.
	_ "modernc.org/sqlite"

	"github.com/magabrotheeeer/antivirus-core/internal/storage"
)

// DefaultAcquireTimeout время ожидания соединения и блокировки базы по умолчанию.
const DefaultAcquireTimeout = 30 * time.Second

// Storage инкапсулирует соединение с файлом базы данных.
type Storage struct {
	DB             *sql.DB
	path           string
	acquireTimeout time.Duration
}

// New открывает (и при необходимости создаёт) файл базы данных.
func New(path string, acquireTimeout time.Duration) (*Storage, error) {
	const op = "storage.New"

	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, acquireTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}

	return &Storage{
		DB:             db,
		path:           path,
		acquireTimeout: acquireTimeout,
	}, nil
}

// dsn собирает строку подключения: WAL позволяет читателям не ждать писателя,
// busy_timeout ограничивает ожидание блокировки, _txlock=immediate берёт
// блокировку записи в начале транзакции.
func dsn(path string, acquireTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", acquireTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Path путь к файлу базы данных.
func (s *Storage) Path() string {
	return s.path
}

// Close закрывает соединение с базой.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// withTx выполняет fn в одной транзакции: begin → fn → commit, откат при любой ошибке.
func (s *Storage) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %w", op, storage.ErrTransaction, err)
	}
	if err = tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w: %w", op, storage.ErrTransaction, err)
	}
	return nil
}

// readCtx ограничивает чтение тем же временем ожидания, что и запись.
func (s *Storage) readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.acquireTimeout)
}

// readErr классифицирует ошибку чтения.
func readErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
}
