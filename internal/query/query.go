// file: internal/query/query.go
// version: 1.0.0
// guid: 0b9e4c73-61d2-4a8f-95e7-d3c1a2f86b40

// Package query provides read-only views over the catalog.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/lending-library/internal/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Catalog is the collection the engine reads.
type Catalog interface {
	Books() []*models.Book
}

// Engine answers catalog queries. It never mutates records.
type Engine struct {
	catalog Catalog
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used by Overdue.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns a query engine over catalog.
func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListAll returns a copy of every record in store order.
func (e *Engine) ListAll() []models.Book {
	return e.filter(func(*models.Book) bool { return true })
}

// Search returns records whose title or author contains keyword. Matching
// is case-sensitive; an empty keyword matches everything.
func (e *Engine) Search(keyword string) []models.Book {
	return e.filter(func(b *models.Book) bool {
		return strings.Contains(b.Title, keyword) || strings.Contains(b.Author, keyword)
	})
}

// Overdue returns titles with every copy on loan whose shared due date has
// passed. Partially lent titles are never reported.
func (e *Engine) Overdue() []models.Book {
	now := e.now()
	return e.filter(func(b *models.Book) bool {
		return b.FullyLent() && b.DueDate.Before(now)
	})
}

// Stats summarizes the catalog at the current time.
func (e *Engine) Stats() models.CatalogStats {
	now := e.now()
	var s models.CatalogStats
	for _, b := range e.catalog.Books() {
		s.Titles++
		s.Copies += b.TotalCopies
		s.CopiesOnLoan += b.BorrowedCopies
		if b.FullyLent() && b.DueDate.Before(now) {
			s.OverdueTitles++
		}
	}
	return s
}

// Suggest returns up to limit distinct catalog titles that look like title,
// closest first. The exact title itself is never suggested.
func (e *Engine) Suggest(title string, limit int) []string {
	if limit <= 0 || strings.TrimSpace(title) == "" {
		return nil
	}

	seen := make(map[string]bool)
	var titles []string
	for _, b := range e.catalog.Books() {
		if b.Title == title || seen[b.Title] {
			continue
		}
		seen[b.Title] = true
		titles = append(titles, b.Title)
	}

	type candidate struct {
		title    string
		distance int
	}
	var candidates []candidate
	matched := make(map[string]bool)

	// Subsequence hits ("dun" in "Dune Messiah") rank by their own distance.
	for _, r := range fuzzy.RankFindNormalizedFold(title, titles) {
		candidates = append(candidates, candidate{title: r.Target, distance: r.Distance})
		matched[r.Target] = true
	}

	// Typos ("Dnue") are not subsequences; fall back to edit distance.
	needle := strings.ToLower(title)
	maxEdits := max(2, len(needle)/3)
	for _, t := range titles {
		if matched[t] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(needle, strings.ToLower(t)); d <= maxEdits {
			candidates = append(candidates, candidate{title: t, distance: d})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].title < candidates[j].title
	})

	out := make([]string, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		if len(out) == limit {
			break
		}
		out = append(out, c.title)
	}
	return out
}

func (e *Engine) filter(keep func(*models.Book) bool) []models.Book {
	out := make([]models.Book, 0)
	for _, b := range e.catalog.Books() {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}
