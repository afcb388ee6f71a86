// file: internal/catalog/export.go
// version: 1.0.0
// guid: 6a1f9b2c-0d3e-4c7a-8e55-9b0f4a2d7e31

package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/models"
	"gopkg.in/yaml.v3"
)

// exportRecord is the operator-facing rendering of a book.
type exportRecord struct {
	Title          string `json:"title" yaml:"title"`
	Author         string `json:"author" yaml:"author"`
	ISBN           string `json:"isbn" yaml:"isbn"`
	TotalCopies    int    `json:"total_copies" yaml:"total_copies"`
	BorrowedCopies int    `json:"borrowed_copies" yaml:"borrowed_copies"`
	DueDate        string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

func toExportRecord(b models.Book) exportRecord {
	rec := exportRecord{
		Title:          b.Title,
		Author:         b.Author,
		ISBN:           b.ISBN,
		TotalCopies:    b.TotalCopies,
		BorrowedCopies: b.BorrowedCopies,
	}
	if b.BorrowedCopies > 0 && b.HasDueDate() {
		rec.DueDate = b.DueDate.Format(codec.DateLayout)
	}
	return rec
}

// Export writes the catalog to w as "yaml" or "json". It never touches the
// data file.
func (s *Store) Export(w io.Writer, format string) error {
	records := make([]exportRecord, 0, len(s.books))
	for _, b := range s.books {
		records = append(records, toExportRecord(*b))
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
