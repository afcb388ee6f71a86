// file: internal/lending/engine.go
// version: 1.0.0
// guid: 8d3a6f10-2c7b-4e59-b0d4-7a1e9c5f2b38

// Package lending applies borrow and return transitions to catalog records.
//
// Lookups are a linear scan in store order; the first record whose title
// matches exactly and which satisfies the operation's guard is mutated in
// place. Neither operation persists the catalog.
package lending

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/jdfalk/lending-library/internal/models"
	"go.uber.org/zap"
)

// maxDueYear is the last year the dd.MM.yyyy record format can hold.
const maxDueYear = 9999

// maxLoanDays bounds a duration before date arithmetic so it cannot overflow.
const maxLoanDays = (maxDueYear + 1) * 366

// Catalog is the shared collection the engine mutates.
type Catalog interface {
	Books() []*models.Book
}

// BorrowResult describes a successful borrow.
type BorrowResult struct {
	Book    models.Book `json:"book"`
	DueDate time.Time   `json:"due_date"`
}

// ReturnResult describes a successful return. Overdue is informational.
type ReturnResult struct {
	Book    models.Book `json:"book"`
	Overdue bool        `json:"overdue"`
	DueDate time.Time   `json:"due_date"`
}

// Engine performs borrow and return against a Catalog.
type Engine struct {
	catalog Catalog
	now     func() time.Time
	log     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// New returns an engine bound to catalog.
func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParseDuration converts a loan duration in days to an int. Negative or
// non-numeric text yields ErrInvalidInput.
func ParseDuration(text string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: loan duration %q is not a whole number of days", ErrInvalidInput, text)
	}
	if days < 0 {
		return 0, fmt.Errorf("%w: loan duration must not be negative, got %d", ErrInvalidInput, days)
	}
	return days, nil
}

// Borrow lends one copy of the first available book titled title for days.
// Availability is checked before the duration.
func (e *Engine) Borrow(title string, days int) (BorrowResult, error) {
	return e.borrow(title, func() (int, error) {
		if days < 0 {
			return 0, fmt.Errorf("%w: loan duration must not be negative, got %d", ErrInvalidInput, days)
		}
		return days, nil
	})
}

// BorrowText is Borrow with the duration still in caller text form.
func (e *Engine) BorrowText(title, durationText string) (BorrowResult, error) {
	return e.borrow(title, func() (int, error) {
		return ParseDuration(durationText)
	})
}

func (e *Engine) borrow(title string, duration func() (int, error)) (BorrowResult, error) {
	op := logger.StartOperation(e.log, "borrow", zap.String("title", title))

	book := e.find(title, func(b *models.Book) bool {
		return b.TotalCopies > b.BorrowedCopies
	})
	if book == nil {
		err := fmt.Errorf("%w: %q", ErrUnavailable, title)
		op.Failure(err, true)
		return BorrowResult{}, err
	}

	days, err := duration()
	if err != nil {
		op.Failure(err, true)
		return BorrowResult{}, err
	}

	due, err := e.dueDate(days)
	if err != nil {
		op.Failure(err, true)
		return BorrowResult{}, err
	}

	book.BorrowedCopies++
	book.DueDate = due

	op.Success("book borrowed",
		zap.Int("days", days),
		zap.Time("due_date", book.DueDate),
		zap.Int("borrowed_copies", book.BorrowedCopies))
	return BorrowResult{Book: *book, DueDate: book.DueDate}, nil
}

// dueDate returns now plus days, rejecting dates past the last storable year.
func (e *Engine) dueDate(days int) (time.Time, error) {
	if days > maxLoanDays {
		return time.Time{}, fmt.Errorf("%w: loan duration of %d days is too long", ErrInvalidInput, days)
	}
	due := e.now().AddDate(0, 0, days)
	if due.Year() > maxDueYear {
		return time.Time{}, fmt.Errorf("%w: loan of %d days would be due after year %d", ErrInvalidInput, days, maxDueYear)
	}
	return due, nil
}

// Return takes back one copy of the first book titled title that has a copy
// on loan. A late return still succeeds and is reported through Overdue.
func (e *Engine) Return(title string) (ReturnResult, error) {
	op := logger.StartOperation(e.log, "return", zap.String("title", title))

	book := e.find(title, func(b *models.Book) bool {
		return b.BorrowedCopies > 0
	})
	if book == nil {
		err := fmt.Errorf("%w: %q", ErrNoActiveLoan, title)
		op.Failure(err, true)
		return ReturnResult{}, err
	}

	res := ReturnResult{DueDate: book.DueDate}
	if e.now().After(book.DueDate) {
		res.Overdue = true
		op.Warn("book returned after due date", zap.Time("due_date", book.DueDate))
	}

	book.BorrowedCopies--
	res.Book = *book

	op.Success("book returned", zap.Int("borrowed_copies", book.BorrowedCopies))
	return res, nil
}

func (e *Engine) find(title string, guard func(*models.Book) bool) *models.Book {
	for _, b := range e.catalog.Books() {
		if b.Title == title && guard(b) {
			return b
		}
	}
	return nil
}
