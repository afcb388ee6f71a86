// file: internal/library/service_test.go
// version: 1.0.0
// guid: 2c7d9e14-8a3f-4b61-a0e5-4f1b6c3d8e97

package library

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jdfalk/lending-library/internal/catalog"
	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/fileops"
	"github.com/jdfalk/lending-library/internal/lending"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newService(t *testing.T, persistLoans bool) (*Service, string, *testClock) {
	t.Helper()
	path := filepath.Join(t.TempDir(), catalog.DefaultDataFile)
	store, err := catalog.Open(path, catalog.WithWriteConfig(fileops.OperationConfig{}))
	require.NoError(t, err)
	clock := &testClock{t: today}
	return New(store, Options{PersistLoans: persistLoans, Clock: clock.Now}), path, clock
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestAddBook(t *testing.T) {
	svc, path, _ := newService(t, false)

	book, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, book.TotalCopies)
	assert.Equal(t, 0, book.BorrowedCopies)
	assert.Equal(t, "Dune,Herbert,111,2,0,01.01.0001\n", readFile(t, path))
}

func TestAddBookRejectsBadInput(t *testing.T) {
	tests := []struct {
		name, title, total string
	}{
		{"non-numeric copies", "Dune", "two"},
		{"negative copies", "Dune", "-1"},
		{"empty title", "", "1"},
		{"blank title", "   ", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, path, _ := newService(t, false)
			_, err := svc.AddBook(tt.title, "Herbert", "111", tt.total)
			assert.ErrorIs(t, err, lending.ErrInvalidInput)
			assert.Empty(t, svc.ListAll())
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestAddBookZeroCopiesAllowed(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "0")
	require.NoError(t, err)

	_, err = svc.Borrow("Dune", "7")
	assert.ErrorIs(t, err, lending.ErrUnavailable)
}

func TestBorrowAndReturnDoNotSaveByDefault(t *testing.T) {
	// Known surprising: loans are only in memory until Save is called, so a
	// crash after borrowing loses the loan.
	svc, path, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)
	saved := readFile(t, path)

	_, err = svc.Borrow("Dune", "7")
	require.NoError(t, err)
	assert.Equal(t, saved, readFile(t, path))
	assert.Equal(t, 1, svc.ListAll()[0].BorrowedCopies)

	_, err = svc.Return("Dune")
	require.NoError(t, err)
	assert.Equal(t, saved, readFile(t, path))
	assert.False(t, svc.PersistsLoans())

	_, err = svc.Borrow("Dune", "7")
	require.NoError(t, err)
	require.NoError(t, svc.Save())
	assert.Equal(t, "Dune,Herbert,111,2,1,08.06.2024\n", readFile(t, path))
}

func TestPersistLoansSavesAfterEachTransition(t *testing.T) {
	svc, path, _ := newService(t, true)
	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)

	_, err = svc.Borrow("Dune", "3")
	require.NoError(t, err)
	assert.Equal(t, "Dune,Herbert,111,2,1,04.06.2024\n", readFile(t, path))

	_, err = svc.Return("Dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune,Herbert,111,2,0,04.06.2024\n", readFile(t, path))

	_, err = svc.Return("Dune")
	assert.ErrorIs(t, err, lending.ErrNoActiveLoan)
	assert.Equal(t, "Dune,Herbert,111,2,0,04.06.2024\n", readFile(t, path))
}

func TestBorrowInvalidDuration(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "1")
	require.NoError(t, err)

	_, err = svc.Borrow("Dune", "a week")
	assert.ErrorIs(t, err, lending.ErrInvalidInput)
	_, err = svc.Borrow("Dune", "-3")
	assert.ErrorIs(t, err, lending.ErrInvalidInput)
	_, err = svc.Borrow("Emma", "-3")
	assert.ErrorIs(t, err, lending.ErrUnavailable)
}

func TestBorrowTooLongKeepsCatalogLoadable(t *testing.T) {
	svc, path, _ := newService(t, true)
	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)

	_, err = svc.Borrow("Dune", "3000000")
	assert.ErrorIs(t, err, lending.ErrInvalidInput)
	assert.Equal(t, 0, svc.ListAll()[0].BorrowedCopies)
	assert.False(t, svc.UnsavedChanges())

	require.NoError(t, svc.Save())
	reopened, err := catalog.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "Dune,Herbert,111,2,0,01.01.0001\n", readFile(t, path))
	assert.Equal(t, 1, reopened.Len())
}

func TestDuneScenario(t *testing.T) {
	svc, _, clock := newService(t, false)

	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)
	require.Len(t, svc.ListAll(), 1)

	res, err := svc.Borrow("Dune", "7")
	require.NoError(t, err)
	assert.Equal(t, today.AddDate(0, 0, 7), res.DueDate)

	res, err = svc.Borrow("Dune", "3")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Book.BorrowedCopies)
	assert.Equal(t, today.AddDate(0, 0, 3), svc.ListAll()[0].DueDate)

	_, err = svc.Borrow("Dune", "1")
	assert.ErrorIs(t, err, lending.ErrUnavailable)

	assert.Empty(t, svc.ListOverdue())
	clock.t = today.AddDate(0, 0, 5)
	overdue := svc.ListOverdue()
	require.Len(t, overdue, 1)
	assert.Equal(t, "Dune", overdue[0].Title)

	ret, err := svc.Return("Dune")
	require.NoError(t, err)
	assert.True(t, ret.Overdue)
	assert.Equal(t, 1, svc.ListAll()[0].BorrowedCopies)
	assert.Empty(t, svc.ListOverdue())
}

func TestSearch(t *testing.T) {
	svc, _, _ := newService(t, false)
	for _, b := range [][2]string{{"Dune", "Frank Herbert"}, {"Emma", "Jane Austen"}} {
		_, err := svc.AddBook(b[0], b[1], "", "1")
		require.NoError(t, err)
	}

	assert.Len(t, svc.Search(""), 2)
	assert.Len(t, svc.Search("Austen"), 1)
	assert.Empty(t, svc.Search("austen"))
}

func TestImport(t *testing.T) {
	svc, path, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "1")
	require.NoError(t, err)

	input := "Emma,Austen,222,1,0,01.01.0001\nPersuasion,Austen,333,2,1,10.06.2024\n"
	var progress bytes.Buffer
	res, err := svc.Import(strings.NewReader(input), &progress)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 2, Total: 3}, res)
	assert.Equal(t, "Dune,Herbert,111,1,0,01.01.0001\n"+input, readFile(t, path))
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestImportSurvivesBrokenProgressWriter(t *testing.T) {
	svc, path, _ := newService(t, false)

	input := "Emma,Austen,222,1,0,01.01.0001\nPersuasion,Austen,333,2,0,01.01.0001\n"
	res, err := svc.Import(strings.NewReader(input), brokenWriter{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, input, readFile(t, path))
}

func TestImportMalformedAddsNothing(t *testing.T) {
	svc, path, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "1")
	require.NoError(t, err)
	before := readFile(t, path)

	_, err = svc.Import(strings.NewReader("Emma,Austen,222,1,0,01.01.0001\nbroken line\n"), nil)
	var perr *codec.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Len(t, svc.ListAll(), 1)
	assert.Equal(t, before, readFile(t, path))
}

func TestReload(t *testing.T) {
	svc, path, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "1")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Emma,Austen,222,1,0,01.01.0001\n"), 0644))
	require.NoError(t, svc.Reload())
	assert.Equal(t, "Emma", svc.ListAll()[0].Title)

	require.NoError(t, os.WriteFile(path, []byte("bad\n"), 0644))
	assert.ErrorIs(t, svc.Reload(), codec.ErrMalformedRecord)
	assert.Equal(t, "Emma", svc.ListAll()[0].Title)
}

func TestStatsAndSuggest(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)
	_, err = svc.AddBook("Emma", "Austen", "222", "1")
	require.NoError(t, err)
	_, err = svc.Borrow("Emma", "1")
	require.NoError(t, err)

	stats := svc.Stats()
	assert.Equal(t, 2, stats.Titles)
	assert.Equal(t, 3, stats.Copies)
	assert.Equal(t, 1, stats.CopiesOnLoan)
	assert.Equal(t, 0, stats.OverdueTitles)

	assert.Contains(t, svc.Suggest("Dnue", 3), "Dune")
}

func TestExport(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf, "yaml"))
	assert.Contains(t, buf.String(), "title: Dune")
}

func TestReloadIfChanged(t *testing.T) {
	svc, path, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "1")
	require.NoError(t, err)
	_, err = svc.Borrow("Dune", "7")
	require.NoError(t, err)

	// The file still matches the last save, so the in-memory loan survives.
	reloaded, err := svc.ReloadIfChanged()
	require.NoError(t, err)
	assert.False(t, reloaded)
	assert.Equal(t, 1, svc.ListAll()[0].BorrowedCopies)

	require.NoError(t, os.WriteFile(path, []byte("Emma,Austen,222,1,0,01.01.0001\n"), 0644))
	reloaded, err = svc.ReloadIfChanged()
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, "Emma", svc.ListAll()[0].Title)
}

func TestUnsavedChanges(t *testing.T) {
	svc, _, _ := newService(t, false)
	_, err := svc.AddBook("Dune", "Herbert", "111", "2")
	require.NoError(t, err)
	assert.False(t, svc.UnsavedChanges())

	_, err = svc.Borrow("Dune", "7")
	require.NoError(t, err)
	assert.True(t, svc.UnsavedChanges())

	// Adding a book rewrites the whole catalog, loans included.
	_, err = svc.AddBook("Emma", "Austen", "222", "1")
	require.NoError(t, err)
	assert.False(t, svc.UnsavedChanges())

	_, err = svc.Return("Dune")
	require.NoError(t, err)
	assert.True(t, svc.UnsavedChanges())
	require.NoError(t, svc.Save())
	assert.False(t, svc.UnsavedChanges())

	_, err = svc.Return("Dune")
	assert.Error(t, err)
	assert.False(t, svc.UnsavedChanges(), "rejected returns change nothing")
}

func TestUnsavedChangesWithPersistLoans(t *testing.T) {
	svc, _, _ := newService(t, true)
	_, err := svc.AddBook("Dune", "Herbert", "111", "1")
	require.NoError(t, err)
	_, err = svc.Borrow("Dune", "7")
	require.NoError(t, err)
	assert.False(t, svc.UnsavedChanges())
}
