// file: internal/server/response_types.go
// version: 2.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/models"
)

// ListResponse provides a consistent format for list responses
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// MessageResponse provides a consistent format for status messages
type MessageResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// BookResponse renders a book with its due date in the catalog layout
type BookResponse struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	TotalCopies     int    `json:"total_copies"`
	BorrowedCopies  int    `json:"borrowed_copies"`
	AvailableCopies int    `json:"available_copies"`
	DueDate         string `json:"due_date,omitempty"`
}

// LoanResponse is returned by a successful borrow
type LoanResponse struct {
	Book    BookResponse `json:"book"`
	DueDate string       `json:"due_date"`
	// Saved is false when the loan lives only in memory until the next save
	Saved bool `json:"saved"`
}

// ReturnResponse is returned by a successful return
type ReturnResponse struct {
	Book    BookResponse `json:"book"`
	Overdue bool         `json:"overdue"`
	DueDate string       `json:"due_date,omitempty"`
	Saved   bool         `json:"saved"`
}

// NumberText accepts a JSON number or string and keeps it as text, so bad
// counts are reported by the service the same way as on the command line.
type NumberText string

// UnmarshalJSON implements json.Unmarshaler
func (n *NumberText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	*n = NumberText(data)
	return nil
}

// AddBookRequest is the body of POST /api/v1/books
type AddBookRequest struct {
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	ISBN        string     `json:"isbn"`
	TotalCopies NumberText `json:"total_copies"`
}

// LoanRequest is the body of POST /api/v1/loans
type LoanRequest struct {
	Title string     `json:"title"`
	Days  NumberText `json:"days"`
}

// ReturnRequest is the body of POST /api/v1/returns
type ReturnRequest struct {
	Title string `json:"title"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	DataFile       string `json:"data_file"`
	Titles         int    `json:"titles"`
	UnsavedChanges bool   `json:"unsaved_changes"`
}

// RestoreRequest is the body of POST /api/v1/backups/restore
type RestoreRequest struct {
	Filename string `json:"filename"`
	Verify   *bool  `json:"verify"`
}

func formatDueDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(codec.DateLayout)
}

func toBookResponse(b models.Book) BookResponse {
	resp := BookResponse{
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		TotalCopies:     b.TotalCopies,
		BorrowedCopies:  b.BorrowedCopies,
		AvailableCopies: b.AvailableCopies(),
	}
	if b.BorrowedCopies > 0 {
		resp.DueDate = formatDueDate(b.DueDate)
	}
	return resp
}

func toBookResponses(books []models.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = toBookResponse(b)
	}
	return out
}
