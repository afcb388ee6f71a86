// file: internal/codec/record.go
// version: 1.0.0
// guid: ec4ca422-8761-4fe1-8d3d-d6f344a8c5c4

// Package codec converts catalog records to and from the single-line
// comma-delimited format used by the data file.
//
// Field order is fixed: title, author, isbn, totalCopies, borrowedCopies,
// dueDate. Free-text fields are written verbatim; a comma inside a title or
// author is not escaped and makes the line undecodable.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jdfalk/lending-library/internal/models"
)

const (
	// Delimiter separates the fields of a record.
	Delimiter = ","
	// DateLayout is the dd.MM.yyyy layout used for due dates.
	DateLayout = "02.01.2006"
	// FieldCount is the number of fields in every record.
	FieldCount = 6

	// noDueDate is how the zero due date is written.
	noDueDate = "01.01.0001"
)

// Encode renders a book as a single record line without a trailing newline.
func Encode(b models.Book) string {
	fields := []string{
		b.Title,
		b.Author,
		b.ISBN,
		strconv.Itoa(b.TotalCopies),
		strconv.Itoa(b.BorrowedCopies),
		formatDate(b.DueDate),
	}
	return strings.Join(fields, Delimiter)
}

// Decode parses a single record line. Malformed input yields a *ParseError.
func Decode(line string) (models.Book, error) {
	parts := strings.Split(line, Delimiter)
	if len(parts) != FieldCount {
		return models.Book{}, newParseError(line,
			fmt.Sprintf("expected %d fields, got %d", FieldCount, len(parts)), nil)
	}

	total, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return models.Book{}, newParseError(line, "total copies is not an integer", err)
	}
	borrowed, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return models.Book{}, newParseError(line, "borrowed copies is not an integer", err)
	}
	if total < 0 || borrowed < 0 || borrowed > total {
		return models.Book{}, newParseError(line,
			fmt.Sprintf("copy counts out of range (total=%d, borrowed=%d)", total, borrowed), nil)
	}

	due, err := parseDate(parts[5])
	if err != nil {
		return models.Book{}, newParseError(line, "due date does not match dd.MM.yyyy", err)
	}

	return models.Book{
		Title:          parts[0],
		Author:         parts[1],
		ISBN:           parts[2],
		TotalCopies:    total,
		BorrowedCopies: borrowed,
		DueDate:        due,
	}, nil
}

// DecodeAll reads one record per line until EOF. The first malformed line
// aborts decoding and is reported with its 1-based line number.
func DecodeAll(r io.Reader) ([]models.Book, error) {
	var books []models.Book

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		book, err := Decode(scanner.Text())
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = lineNo
			}
			return nil, err
		}
		books = append(books, book)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return books, nil
}

// EncodeAll writes every book on its own line, in slice order.
func EncodeAll(w io.Writer, books []models.Book) error {
	bw := bufio.NewWriter(w)
	for _, b := range books {
		if _, err := bw.WriteString(Encode(b) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return noDueDate
	}
	return t.Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == noDueDate {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.Local)
}
