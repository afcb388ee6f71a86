// file: internal/library/service.go
// version: 1.0.0
// guid: f2a8c6d1-3b94-4e07-8c5a-9d0e1b7f4a26

// Package library is the command surface of the lending catalog. Every
// operation returns a structured result or a typed failure and never
// prints; presentation belongs to the CLI and HTTP layers.
package library

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jdfalk/lending-library/internal/catalog"
	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/lending"
	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/jdfalk/lending-library/internal/metrics"
	"github.com/jdfalk/lending-library/internal/models"
	"github.com/jdfalk/lending-library/internal/query"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Options configures a Service.
type Options struct {
	// PersistLoans saves the catalog after every successful borrow or
	// return. Off by default: loans live in memory until Save is called.
	PersistLoans bool
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Service wires the catalog store to the lending and query engines. It is
// not safe for concurrent use.
type Service struct {
	store   *catalog.Store
	lending *lending.Engine
	query   *query.Engine
	opts    Options
	log     *zap.Logger
	// unsaved is set while a loan change exists only in memory
	unsaved bool
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// New builds a service over an opened store.
func New(store *catalog.Store, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := logger.OrNop(opts.Logger)
	s := &Service{
		store:   store,
		lending: lending.New(store, lending.WithClock(opts.Clock), lending.WithLogger(log)),
		query:   query.New(store, query.WithClock(opts.Clock)),
		opts:    opts,
		log:     log,
	}
	metrics.SetCatalog(s.query.Stats())
	return s
}

// DataFile returns the path of the backing data file.
func (s *Service) DataFile() string {
	return s.store.Path()
}

// AddBook validates caller text, appends a new record with no copies on loan
// and persists the catalog. Duplicate titles are accepted.
func (s *Service) AddBook(title, author, isbn, totalCopiesText string) (book models.Book, err error) {
	defer s.observe("add", time.Now(), &err)
	op := logger.StartOperation(s.log, "add", zap.String("title", title))

	if strings.TrimSpace(title) == "" {
		err = fmt.Errorf("%w: title must not be empty", lending.ErrInvalidInput)
		op.Failure(err, true)
		return models.Book{}, err
	}
	total, convErr := strconv.Atoi(strings.TrimSpace(totalCopiesText))
	if convErr != nil {
		err = fmt.Errorf("%w: total copies %q is not a whole number", lending.ErrInvalidInput, totalCopiesText)
		op.Failure(err, true)
		return models.Book{}, err
	}
	if total < 0 {
		err = fmt.Errorf("%w: total copies must not be negative, got %d", lending.ErrInvalidInput, total)
		op.Failure(err, true)
		return models.Book{}, err
	}

	book = models.Book{Title: title, Author: author, ISBN: isbn, TotalCopies: total}
	if err = s.store.AddBook(book); err != nil {
		op.Failure(err, false)
		return book, err
	}
	s.unsaved = false
	op.Success("book added", zap.Int("total_copies", total))
	return book, nil
}

// ListAll returns every record in store order.
func (s *Service) ListAll() []models.Book {
	defer s.observe("list", time.Now(), nil)
	return s.query.ListAll()
}

// Search returns records whose title or author contains keyword.
func (s *Service) Search(keyword string) []models.Book {
	defer s.observe("search", time.Now(), nil)
	return s.query.Search(keyword)
}

// ListOverdue returns fully lent titles past their due date.
func (s *Service) ListOverdue() []models.Book {
	defer s.observe("overdue", time.Now(), nil)
	return s.query.Overdue()
}

// Borrow lends one copy of title for the number of days in
// loanDurationText.
func (s *Service) Borrow(title, loanDurationText string) (res lending.BorrowResult, err error) {
	defer s.observe("borrow", time.Now(), &err)
	res, err = s.lending.BorrowText(title, loanDurationText)
	if err != nil {
		return res, err
	}
	if err = s.persistLoan(); err != nil {
		return res, err
	}
	return res, nil
}

// UnsavedChanges reports whether a borrow or return has not reached the
// data file yet.
func (s *Service) UnsavedChanges() bool {
	return s.unsaved
}

// Return takes back one copy of title.
func (s *Service) Return(title string) (res lending.ReturnResult, err error) {
	defer s.observe("return", time.Now(), &err)
	res, err = s.lending.Return(title)
	if err != nil {
		return res, err
	}
	if err = s.persistLoan(); err != nil {
		return res, err
	}
	return res, nil
}

// PersistsLoans reports whether borrow and return save the catalog.
func (s *Service) PersistsLoans() bool {
	return s.opts.PersistLoans
}

// Save writes the whole catalog to the data file.
func (s *Service) Save() (err error) {
	defer s.observe("save", time.Now(), &err)
	if err = s.store.Save(); err != nil {
		return err
	}
	s.unsaved = false
	return nil
}

// Reload replaces the in-memory catalog with the data file contents. The
// current catalog is kept if the file cannot be parsed.
func (s *Service) Reload() (err error) {
	defer s.observe("reload", time.Now(), &err)
	if err = s.store.Reload(); err != nil {
		return err
	}
	if s.unsaved {
		s.log.Warn("reload discarded unsaved loan changes", zap.String("path", s.store.Path()))
	}
	s.unsaved = false
	return nil
}

// ReloadIfChanged reloads only when the data file was modified by someone
// other than this service. It reports whether a reload happened.
func (s *Service) ReloadIfChanged() (bool, error) {
	changed, err := s.store.ChangedOnDisk()
	if err != nil {
		return false, fmt.Errorf("failed to check data file: %w", err)
	}
	if !changed {
		return false, nil
	}
	if err := s.Reload(); err != nil {
		return false, err
	}
	return true, nil
}

// Import decodes every record in r and appends them with a single save. A
// malformed line aborts the import before anything is added; the decoder
// already enforces the copy-count invariant. Progress is drawn to progress
// when it is non-nil.
func (s *Service) Import(r io.Reader, progress io.Writer) (res ImportResult, err error) {
	defer s.observe("import", time.Now(), &err)
	op := logger.StartOperation(s.log, "import")

	books, err := codec.DecodeAll(r)
	if err != nil {
		op.Failure(err, false)
		return ImportResult{}, fmt.Errorf("failed to read import: %w", err)
	}

	if progress != nil {
		s.drawImportProgress(progress, len(books))
	}

	if err = s.store.AddBooks(books); err != nil {
		op.Failure(err, errors.Is(err, catalog.ErrInvalidBook))
		return ImportResult{}, err
	}
	s.unsaved = false
	res = ImportResult{Added: len(books), Total: s.store.Len()}
	op.Success("catalog imported", zap.Int("added", res.Added), zap.Int("total", res.Total))
	return res, nil
}

// drawImportProgress advances a bar over n decoded records. A writer that
// fails only stops the drawing.
func (s *Service) drawImportProgress(w io.Writer, n int) {
	bar := progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for range n {
		if err := bar.Add(1); err != nil {
			s.log.Warn("import progress not drawn", zap.Error(err))
			return
		}
	}
	if err := bar.Finish(); err != nil {
		s.log.Warn("import progress not drawn", zap.Error(err))
	}
}

// Export renders the catalog as yaml or json.
func (s *Service) Export(w io.Writer, format string) error {
	return s.store.Export(w, format)
}

// Suggest returns titles resembling title for "did you mean" hints.
func (s *Service) Suggest(title string, limit int) []string {
	return s.query.Suggest(title, limit)
}

// Stats summarizes the catalog.
func (s *Service) Stats() models.CatalogStats {
	return s.query.Stats()
}

func (s *Service) persistLoan() error {
	if !s.opts.PersistLoans {
		s.unsaved = true
		return nil
	}
	if err := s.store.Save(); err != nil {
		s.unsaved = true
		return fmt.Errorf("loan recorded in memory but not saved: %w", err)
	}
	s.unsaved = false
	return nil
}

func (s *Service) observe(op string, start time.Time, errp *error) {
	outcome := metrics.OutcomeSuccess
	if errp != nil && *errp != nil {
		outcome = metrics.OutcomeError
		if lending.IsRejection(*errp) || errors.Is(*errp, catalog.ErrInvalidBook) {
			outcome = metrics.OutcomeRejected
		}
	}
	metrics.ObserveOperation(op, outcome, time.Since(start))
	metrics.SetCatalog(s.query.Stats())
}
