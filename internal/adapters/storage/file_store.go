package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"message-editor/internal/domain"
	"message-editor/internal/ports"

	"gopkg.in/yaml.v2"
)

// RuleFileExt — расширение файлов правил.
const RuleFileExt = ".yml"

// fileRecord — содержимое файла правила. Поля message-* читаются из файлов
// старого формата и никогда не записываются.
type fileRecord struct {
	SourcePattern    string `yaml:"source-pattern,omitempty"`
	SourcePlace      string `yaml:"source-place,omitempty"`
	Replacement      string `yaml:"replacement"`
	DestinationPlace string `yaml:"destination-place,omitempty"`

	LegacyPattern          string  `yaml:"message-before-pattern,omitempty"`
	LegacyPlace            string  `yaml:"message-before-place,omitempty"`
	LegacyReplacement      *string `yaml:"message-after,omitempty"`
	LegacyDestinationPlace string  `yaml:"message-after-place,omitempty"`
}

func (f fileRecord) toRecord(name string) (ports.RuleRecord, error) {
	record := ports.RuleRecord{
		Name:             name,
		SourcePattern:    firstNonEmpty(f.SourcePattern, f.LegacyPattern),
		SourcePlace:      firstNonEmpty(f.SourcePlace, f.LegacyPlace),
		Replacement:      f.Replacement,
		DestinationPlace: firstNonEmpty(f.DestinationPlace, f.LegacyDestinationPlace),
	}
	if record.Replacement == "" && f.LegacyReplacement != nil {
		record.Replacement = *f.LegacyReplacement
	}
	if record.SourcePattern == "" {
		return record, errors.New("source-pattern is required")
	}
	return record, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FileOption определяет функциональную опцию для FileStore.
type FileOption func(*FileStore)

// WithFileLogger — опция для установки логгера.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}

// FileStore хранит каждое правило в отдельном файле <имя>.yml в каталоге правил.
// Файлы, имя которых начинается с '#', и файлы с другим расширением пропускаются.
type FileStore struct {
	dir string
	mu  sync.Mutex
	log *slog.Logger
}

// NewFileStore создает хранилище для каталога dir. Каталог создается при первом сохранении.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	s := &FileStore{dir: dir, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "file_store"))
	return s
}

// Dir возвращает каталог правил.
func (s *FileStore) Dir() string {
	return s.dir
}

// LoadAll читает правила в порядке имен файлов.
func (s *FileStore) LoadAll(ctx context.Context) ([]ports.RuleRecord, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("read edits directory %s: %w", s.dir, err)}
	}

	var (
		records []ports.RuleRecord
		errs    []error
	)
	for _, entry := range entries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		fileName := entry.Name()
		if entry.IsDir() || strings.HasPrefix(fileName, "#") || !strings.HasSuffix(fileName, RuleFileExt) {
			continue
		}
		name := strings.TrimSuffix(fileName, RuleFileExt)

		record, err := s.readRecord(filepath.Join(s.dir, fileName), name)
		if err != nil {
			errs = append(errs, &domain.RuleLoadError{Name: name, Err: err})
			continue
		}
		records = append(records, record)
	}

	s.log.Debug("Rules loaded", slog.String("dir", s.dir), slog.Int("count", len(records)), slog.Int("errors", len(errs)))
	return records, errs
}

func (s *FileStore) readRecord(path, name string) (ports.RuleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ports.RuleRecord{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	var f fileRecord
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ports.RuleRecord{}, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	return f.toRecord(name)
}

// Save записывает правило в новый файл. Существующий файл не перезаписывается.
func (s *FileStore) Save(ctx context.Context, record ports.RuleRecord) error {
	if strings.ContainsAny(record.Name, `/\`) || record.Name == "" || strings.HasPrefix(record.Name, "#") {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRuleName, record.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create edits directory %s: %w", s.dir, err)
	}

	data, err := yaml.Marshal(fileRecord{
		SourcePattern:    record.SourcePattern,
		SourcePlace:      record.SourcePlace,
		Replacement:      record.Replacement,
		DestinationPlace: record.DestinationPlace,
	})
	if err != nil {
		return fmt.Errorf("failed to encode rule %s: %w", record.Name, err)
	}

	path := s.path(record.Name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateFileName, record.Name)
		}
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", path, err)
	}

	s.log.Info("Rule saved", slog.String("rule", record.Name), slog.String("path", path))
	return nil
}

// Exists сообщает, существует ли файл правила с таким именем.
func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat rule %s: %w", name, err)
	}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+RuleFileExt)
}
