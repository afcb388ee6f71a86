// file: internal/models/book.go
// version: 1.0.0
// guid: 10ad46d1-32af-4ec1-ab20-a0128ea23553

package models

import "time"

// Book is one catalog entry per distinct title. Copies are tracked as an
// aggregate count and share a single due date.
type Book struct {
	Title          string    `json:"title" yaml:"title"`
	Author         string    `json:"author" yaml:"author"`
	ISBN           string    `json:"isbn" yaml:"isbn"`
	TotalCopies    int       `json:"total_copies" yaml:"total_copies"`
	BorrowedCopies int       `json:"borrowed_copies" yaml:"borrowed_copies"`
	DueDate        time.Time `json:"due_date" yaml:"due_date"`
}

// AvailableCopies returns the number of copies that can still be lent.
func (b Book) AvailableCopies() int {
	return b.TotalCopies - b.BorrowedCopies
}

// HasDueDate reports whether the due date carries a value. It is only
// meaningful while at least one copy is on loan.
func (b Book) HasDueDate() bool {
	return !b.DueDate.IsZero()
}

// Valid reports whether the copy counts satisfy 0 <= borrowed <= total.
func (b Book) Valid() bool {
	return b.BorrowedCopies >= 0 && b.BorrowedCopies <= b.TotalCopies
}

// FullyLent reports whether every owned copy is currently on loan.
func (b Book) FullyLent() bool {
	return b.BorrowedCopies > 0 && b.BorrowedCopies == b.TotalCopies
}

// CatalogStats summarizes the lending state of a catalog.
type CatalogStats struct {
	Titles        int `json:"titles"`
	Copies        int `json:"copies"`
	CopiesOnLoan  int `json:"copies_on_loan"`
	OverdueTitles int `json:"overdue_titles"`
}
