package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"message-editor/internal/domain"
	"message-editor/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	greetingRecord = ports.RuleRecord{
		Name:             "greeting",
		SourcePattern:    "^hello$",
		SourcePlace:      "GAME_CHAT",
		Replacement:      "hi there",
		DestinationPlace: "SYSTEM_CHAT",
	}
	farewellRecord = ports.RuleRecord{
		Name:          "farewell",
		SourcePattern: "bye (.+)",
		Replacement:   "",
	}
)

// storeContract проверяет поведение, общее для всех реализаций RuleStore.
func storeContract(t *testing.T, store ports.RuleStore) {
	t.Helper()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "greeting")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, greetingRecord))
	require.NoError(t, store.Save(ctx, farewellRecord))

	exists, err = store.Exists(ctx, "greeting")
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.Save(ctx, greetingRecord)
	assert.ErrorIs(t, err, domain.ErrDuplicateFileName)

	records, errs := store.LoadAll(ctx)
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []ports.RuleRecord{greetingRecord, farewellRecord}, records)
}

func TestMemoryStore(t *testing.T) {
	t.Run("общий контракт", func(t *testing.T) {
		storeContract(t, NewMemoryStore())
	})

	t.Run("LoadAll возвращает копию и сохраняет порядок", func(t *testing.T) {
		store := NewMemoryStore(greetingRecord, farewellRecord)

		records, errs := store.LoadAll(context.Background())
		assert.Empty(t, errs)
		require.Len(t, records, 2)
		assert.Equal(t, "greeting", records[0].Name)

		records[0].Name = "changed"
		again, _ := store.LoadAll(context.Background())
		assert.Equal(t, "greeting", again[0].Name)
	})
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "edits")
	return NewFileStore(dir, WithFileLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("общий контракт", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		storeContract(t, store)
	})

	t.Run("отсутствующий каталог означает отсутствие правил", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		records, errs := store.LoadAll(ctx)
		assert.Empty(t, records)
		assert.Empty(t, errs)
	})

	t.Run("сохраненный файл читается обратно", func(t *testing.T) {
		store, dir := newTestFileStore(t)
		require.NoError(t, store.Save(ctx, greetingRecord))

		data, err := os.ReadFile(filepath.Join(dir, "greeting.yml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "source-pattern: ^hello$")
		assert.Contains(t, string(data), "destination-place: SYSTEM_CHAT")

		records, errs := store.LoadAll(ctx)
		assert.Empty(t, errs)
		assert.Equal(t, []ports.RuleRecord{greetingRecord}, records)
	})

	t.Run("пропуск отключенных и посторонних файлов", func(t *testing.T) {
		store, dir := newTestFileStore(t)
		writeFile(t, dir, "b.yml", "source-pattern: b\nreplacement: B\n")
		writeFile(t, dir, "a.yml", "source-pattern: a\nreplacement: A\n")
		writeFile(t, dir, "#disabled.yml", "source-pattern: x\n")
		writeFile(t, dir, "notes.txt", "source-pattern: y\n")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.yml"), 0o755))

		records, errs := store.LoadAll(ctx)
		assert.Empty(t, errs)
		require.Len(t, records, 2)
		assert.Equal(t, "a", records[0].Name)
		assert.Equal(t, "b", records[1].Name)
	})

	t.Run("ключи старого формата", func(t *testing.T) {
		store, dir := newTestFileStore(t)
		writeFile(t, dir, "legacy.yml", `message-before-pattern: "Welcome (.+)!"
message-before-place: GAME_CHAT
message-after: "Hi $1"
message-after-place: ACTION_BAR
`)

		records, errs := store.LoadAll(ctx)
		assert.Empty(t, errs)
		require.Len(t, records, 1)
		assert.Equal(t, ports.RuleRecord{
			Name:             "legacy",
			SourcePattern:    "Welcome (.+)!",
			SourcePlace:      "GAME_CHAT",
			Replacement:      "Hi $1",
			DestinationPlace: "ACTION_BAR",
		}, records[0])
	})

	t.Run("поврежденный файл не прерывает загрузку", func(t *testing.T) {
		store, dir := newTestFileStore(t)
		writeFile(t, dir, "broken.yml", "source-pattern: [unclosed\n")
		writeFile(t, dir, "empty.yml", "replacement: nothing to match\n")
		writeFile(t, dir, "ok.yml", "source-pattern: ok\nreplacement: fine\n")

		records, errs := store.LoadAll(ctx)
		require.Len(t, records, 1)
		assert.Equal(t, "ok", records[0].Name)
		require.Len(t, errs, 2)

		var loadErr *domain.RuleLoadError
		require.True(t, errors.As(errs[0], &loadErr))
		assert.Equal(t, "broken", loadErr.Name)
		require.True(t, errors.As(errs[1], &loadErr))
		assert.Equal(t, "empty", loadErr.Name)
	})

	t.Run("недопустимое имя", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		err := store.Save(ctx, ports.RuleRecord{Name: "../escape", SourcePattern: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidRuleName)
	})
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db := NewDB(filepath.Join(t.TempDir(), "data", "edits.db"))
	db.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	require.NoError(t, db.Open(false))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("общий контракт", func(t *testing.T) {
		storeContract(t, NewSQLiteStore(newTestDB(t)))
	})

	t.Run("порядок добавления", func(t *testing.T) {
		store := NewSQLiteStore(newTestDB(t))
		require.NoError(t, store.Save(ctx, greetingRecord))
		require.NoError(t, store.Save(ctx, farewellRecord))

		records, errs := store.LoadAll(ctx)
		assert.Empty(t, errs)
		assert.Equal(t, []ports.RuleRecord{greetingRecord, farewellRecord}, records)
	})

	t.Run("время создания", func(t *testing.T) {
		db := newTestDB(t)
		store := NewSQLiteStore(db)
		require.NoError(t, store.Save(ctx, greetingRecord))

		var createdAt string
		require.NoError(t, db.DB.QueryRow(`SELECT created_at FROM message_edits WHERE name = ?`, "greeting").Scan(&createdAt))
		assert.Equal(t, "2024-01-02T03:04:05Z", createdAt)
	})

	t.Run("повторное открытие с удалением схемы", func(t *testing.T) {
		db := newTestDB(t)
		store := NewSQLiteStore(db)
		require.NoError(t, store.Save(ctx, greetingRecord))
		require.NoError(t, db.Close())

		reopened := NewDB(db.DSN)
		require.NoError(t, reopened.Open(true))
		defer reopened.Close()

		records, errs := NewSQLiteStore(reopened).LoadAll(ctx)
		assert.Empty(t, errs)
		assert.Empty(t, records)
	})

	t.Run("пустая строка подключения", func(t *testing.T) {
		assert.ErrorIs(t, NewDB("").Open(false), ErrDSNRequired)
	})
}
