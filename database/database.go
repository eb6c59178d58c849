// Package database, SQLite bağlantısını ve şema migration'larını yönetir.
//
// Driver olarak modernc.org/sqlite kullanılır (pure-Go, CGO gerekmez).
// Migration'lar binary'ye gömülü SQL dosyalarıdır ve goose ile uygulanır.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// MemoryPath, testlerde kullanılan in-memory veritabanı yolu.
const MemoryPath = ":memory:"

// DB, *sql.DB bağlantı havuzunu saran struct.
type DB struct {
	Conn *sql.DB
}

// New, SQLite bağlantısı açar ve bekleyen migration'ları uygular.
//
// foreign_keys pragma'sı olmadan ON DELETE CASCADE çalışmaz: konuşma silinince
// mesajların, mesaj silinince reaction'ların gitmesi buna bağlı.
func New(ctx context.Context, dbPath string, logger *zap.Logger) (*DB, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Her in-memory bağlantı ayrı bir veritabanıdır; tek bağlantıya sabitlenir.
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	if err := db.migrate(ctx, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database ready", zap.String("path", dbPath))
	return db, nil
}

// Close, bağlantı havuzunu kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

func (db *DB) migrate(ctx context.Context, logger *zap.Logger) error {
	migrationsFS, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.Conn, migrationsFS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}

	for _, r := range results {
		logger.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("file", filepath.Base(r.Source.Path)),
			zap.Duration("took", r.Duration),
		)
	}
	return nil
}
