// file: cmd/output.go
// version: 1.0.0
// guid: 9f3a7c2e-1d4b-4e8a-b6c5-7d0e9f1a2b3c

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/models"
)

func formatDate(t time.Time) string {
	return t.Format(codec.DateLayout)
}

// printBooks renders books as an aligned table, or empty when there are none
func printBooks(w io.Writer, books []models.Book, empty string) error {
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tAUTHOR\tISBN\tCOPIES\tON LOAN\tDUE")
	for _, b := range books {
		due := "-"
		if b.BorrowedCopies > 0 {
			due = formatDate(b.DueDate)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", b.Title, b.Author, b.ISBN, b.TotalCopies, b.BorrowedCopies, due)
	}
	return tw.Flush()
}

func printStats(w io.Writer, s models.CatalogStats) {
	fmt.Fprintf(w, "Titles:         %d\n", s.Titles)
	fmt.Fprintf(w, "Copies:         %d\n", s.Copies)
	fmt.Fprintf(w, "Copies on loan: %d\n", s.CopiesOnLoan)
	fmt.Fprintf(w, "Overdue titles: %d\n", s.OverdueTitles)
}
