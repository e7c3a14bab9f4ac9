package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Record is one row of the migrations bookkeeping table. Re-running a
// recorded filename is a no-op.
type Record struct {
	ID         uint      `gorm:"primaryKey"`
	Filename   string    `gorm:"uniqueIndex;not null"`
	ExecutedAt time.Time `gorm:"autoCreateTime"`
}

func (Record) TableName() string { return "migrations" }

// Runner applies SQL migration files. Each file runs inside a single
// transaction together with its bookkeeping row, rolled back as a unit on
// failure.
type Runner struct {
	db    *gorm.DB
	files fs.FS
	log   *slog.Logger
}

func NewRunner(db *gorm.DB, files fs.FS, log *slog.Logger) *Runner {
	return &Runner{db: db, files: files, log: log}
}

// Ping verifies store connectivity and returns the server version.
func (r *Runner) Ping(ctx context.Context) (string, error) {
	var version string
	if err := r.db.WithContext(ctx).Raw("SELECT version()").Scan(&version).Error; err != nil {
		return "", fmt.Errorf("database connection failed: %w", err)
	}
	return version, nil
}

// Files lists the embedded migration files in apply order.
func (r *Runner) Files() ([]string, error) {
	entries, err := fs.Glob(r.files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// ApplyAll applies every pending migration in filename-sorted order.
func (r *Runner) ApplyAll(ctx context.Context) error {
	files, err := r.Files()
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := r.Apply(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs a single migration file. Already-recorded filenames are
// skipped without error.
func (r *Runner) Apply(ctx context.Context, filename string) error {
	contents, err := fs.ReadFile(r.files, filename)
	if err != nil {
		return fmt.Errorf("migration %s not found: %w", filename, err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMigrationsTable(tx); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Record{}).Where("filename = ?", filename).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			r.log.Info("migration already executed", "file", filename)
			return nil
		}

		for _, stmt := range splitStatements(string(contents)) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("migration %s failed: %w", filename, err)
			}
		}

		if err := tx.Create(&Record{Filename: filename}).Error; err != nil {
			return err
		}

		r.log.Info("migration executed", "file", filename)
		return nil
	})
}

func ensureMigrationsTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`).Error
}

// splitStatements breaks a migration file into individual statements. The
// driver executes one statement per call, so files with multiple DDL
// statements are split on the terminating semicolon. Semicolons inside
// string literals or procedural bodies are not recognized, so migration
// files must keep plain one-statement-per-semicolon SQL and avoid DO
// blocks and function definitions.
func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
