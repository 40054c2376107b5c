package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"message-editor/internal/domain"
	"message-editor/internal/ports"

	"github.com/maragudk/migrate"
	"github.com/mattn/go-sqlite3"
)

// ErrDSNRequired возвращается при открытии базы без строки подключения.
var ErrDSNRequired = errors.New("DSN required")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB — соединение с базой SQLite, в которой хранятся правила.
type DB struct {
	DB     *sql.DB
	ctx    context.Context // живет до Close
	cancel func()

	// DSN — путь к файлу базы или ":memory:".
	DSN string

	// Now задает время создания записей, по умолчанию time.Now.
	Now func() time.Time
}

// NewDB создает соединение, которое нужно открыть методом Open.
func NewDB(dsn string) *DB {
	db := &DB{
		DSN: dsn,
		Now: time.Now,
	}
	db.ctx, db.cancel = context.WithCancel(context.Background())
	return db
}

// Open открывает базу и применяет миграции. При drop схема сначала удаляется.
func (db *DB) Open(drop bool) (err error) {
	if db.DSN == "" {
		return ErrDSNRequired
	}

	// Каталог нужен только файловой базе.
	if db.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(db.DSN), 0700); err != nil {
			return err
		}
	}

	if db.DB, err = sql.Open("sqlite3", db.DSN); err != nil {
		return err
	}
	// У каждого соединения с :memory: своя база.
	if db.DSN == ":memory:" {
		db.DB.SetMaxOpenConns(1)
	}

	if _, err := db.DB.Exec(`PRAGMA journal_mode = wal;`); err != nil {
		return fmt.Errorf("enable wal: %w", err)
	}

	if drop {
		if err := db.migrateDown(); err != nil {
			return fmt.Errorf("migrateDown: %w", err)
		}
	}

	if err := db.migrateUp(); err != nil {
		return fmt.Errorf("migrateUp: %w", err)
	}

	return nil
}

// Close закрывает соединение.
func (db *DB) Close() error {
	db.cancel()
	if db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

func (db *DB) migrateUp() error {
	dirFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("fs.Sub: %w", err)
	}
	if err := migrate.Up(db.ctx, db.DB, dirFS); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (db *DB) migrateDown() error {
	dirFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("fs.Sub: %w", err)
	}
	if err := migrate.Down(db.ctx, db.DB, dirFS); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// SQLiteStore реализует интерфейс RuleStore поверх таблицы message_edits.
type SQLiteStore struct {
	db *DB
}

// NewSQLiteStore создает хранилище поверх открытой базы.
func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// LoadAll возвращает правила в порядке добавления.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]ports.RuleRecord, []error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT name, source_pattern, source_place, replacement, destination_place
		FROM message_edits
		ORDER BY rowid`)
	if err != nil {
		return nil, []error{fmt.Errorf("query message_edits: %w", err)}
	}
	defer rows.Close()

	var (
		records []ports.RuleRecord
		errs    []error
	)
	for rows.Next() {
		var r ports.RuleRecord
		if err := rows.Scan(&r.Name, &r.SourcePattern, &r.SourcePlace, &r.Replacement, &r.DestinationPlace); err != nil {
			errs = append(errs, fmt.Errorf("scan message_edits: %w", err))
			continue
		}
		if r.SourcePattern == "" {
			errs = append(errs, &domain.RuleLoadError{Name: r.Name, Err: errors.New("source_pattern is required")})
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		errs = append(errs, fmt.Errorf("iterate message_edits: %w", err))
	}
	return records, errs
}

// Save добавляет правило. Занятое имя возвращает domain.ErrDuplicateFileName.
func (s *SQLiteStore) Save(ctx context.Context, record ports.RuleRecord) error {
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO message_edits (name, source_pattern, source_place, replacement, destination_place, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.Name,
		record.SourcePattern,
		record.SourcePlace,
		record.Replacement,
		record.DestinationPlace,
		s.db.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateFileName, record.Name)
		}
		return fmt.Errorf("insert message_edits: %w", err)
	}
	return nil
}

// Exists сообщает, сохранено ли правило с таким именем.
func (s *SQLiteStore) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM message_edits WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query message_edits: %w", err)
	}
	return n > 0, nil
}
