// file: internal/catalog/store.go
// version: 1.0.0
// guid: 2f6d1a3e-7c48-4f0b-9a55-51e3c1b7d6a4

// Package catalog owns the in-memory collection of books and its flat-file
// persistence.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/jdfalk/lending-library/internal/models"
	"go.uber.org/zap"
)

// DefaultDataFile is the data file name used when none is configured.
const DefaultDataFile = "librarydata.txt"

// ErrInvalidBook is returned when a record would break 0 <= borrowed <= total.
var ErrInvalidBook = errors.New("invalid book record")

// Store owns the catalog for the lifetime of the process. It is not safe
// for concurrent use; callers serialize access.
type Store struct {
	path     string
	books    []*models.Book
	diskHash string
	writeCfg fileops.OperationConfig
	log      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithWriteConfig sets how Save replaces the data file.
func WithWriteConfig(cfg fileops.OperationConfig) Option {
	return func(s *Store) { s.writeCfg = cfg }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = logger.OrNop(l) }
}

// Open creates a store backed by path and loads it. A missing file yields
// an empty catalog; the first malformed line aborts with a *codec.ParseError.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultDataFile
	}
	s := &Store{
		path:     path,
		writeCfg: fileops.DefaultConfig(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.writeCfg.Logger == nil {
		s.writeCfg.Logger = s.log
	}

	books, hash, err := s.load()
	if err != nil {
		return nil, err
	}
	s.books = books
	s.diskHash = hash
	s.log.Debug("catalog loaded", zap.String("path", s.path), zap.Int("books", len(books)))
	return s, nil
}

func (s *Store) load() ([]*models.Book, string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to open catalog %s: %w", s.path, err)
	}

	records, err := codec.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load catalog %s: %w", s.path, err)
	}

	books := make([]*models.Book, len(records))
	for i := range records {
		books[i] = &records[i]
	}
	return books, fileops.ComputeHash(data), nil
}

// Reload replaces the in-memory catalog with the file contents. On failure
// the current catalog is kept.
func (s *Store) Reload() error {
	books, hash, err := s.load()
	if err != nil {
		return err
	}
	s.books = books
	s.diskHash = hash
	s.log.Info("catalog reloaded", zap.String("path", s.path), zap.Int("books", len(books)))
	return nil
}

// Save overwrites the data file with every book, one per line, in store order.
func (s *Store) Save() error {
	var buf bytes.Buffer
	if err := codec.EncodeAll(&buf, s.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := fileops.SafeWrite(s.path, buf.Bytes(), s.writeCfg); err != nil {
		return fmt.Errorf("failed to save catalog %s: %w", s.path, err)
	}
	s.diskHash = fileops.ComputeHash(buf.Bytes())
	s.log.Debug("catalog saved", zap.String("path", s.path), zap.Int("books", len(s.books)))
	return nil
}

// ChangedOnDisk reports whether the data file differs from what this store
// last loaded or saved.
func (s *Store) ChangedOnDisk() (bool, error) {
	hash, err := fileops.ComputeFileHash(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.diskHash != "", nil
		}
		return false, err
	}
	return hash != s.diskHash, nil
}

// AddBook appends b to the catalog and persists the full collection. If the
// write fails the book stays in memory and the error is returned.
func (s *Store) AddBook(b models.Book) error {
	if !b.Valid() {
		return fmt.Errorf("%w: borrowed=%d total=%d", ErrInvalidBook, b.BorrowedCopies, b.TotalCopies)
	}
	s.books = append(s.books, &b)
	return s.Save()
}

// AddBooks appends every book and persists once. Nothing is added if any
// record is invalid.
func (s *Store) AddBooks(books []models.Book) error {
	for i, b := range books {
		if !b.Valid() {
			return fmt.Errorf("%w: record %d (%q) borrowed=%d total=%d",
				ErrInvalidBook, i+1, b.Title, b.BorrowedCopies, b.TotalCopies)
		}
	}
	for i := range books {
		b := books[i]
		s.books = append(s.books, &b)
	}
	return s.Save()
}

// Books returns the owned records in store order. Engines mutate them in place.
func (s *Store) Books() []*models.Book {
	return s.books
}

// Snapshot returns a copy of every record in store order.
func (s *Store) Snapshot() []models.Book {
	out := make([]models.Book, len(s.books))
	for i, b := range s.books {
		out[i] = *b
	}
	return out
}

// Len returns the number of titles in the catalog.
func (s *Store) Len() int {
	return len(s.books)
}

// Path returns the backing data file.
func (s *Store) Path() string {
	return s.path
}
