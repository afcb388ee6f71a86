// file: internal/server/handlers.go
// version: 1.0.0
// guid: 6e1f0a2b-7c3d-4e8f-9a0b-5c6d7e8f9a1b

package server

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/lending-library/internal/backup"
	"github.com/jdfalk/lending-library/internal/codec"
	"github.com/jdfalk/lending-library/internal/realtime"
	"go.uber.org/zap"
)

const suggestionLimit = 3

var exportFormats = []string{"yaml", "yml", "json"}

func (s *Server) healthCheck(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	RespondWithOK(c, HealthResponse{
		Status:         "ok",
		Version:        Version,
		DataFile:       s.svc.DataFile(),
		Titles:         len(s.svc.ListAll()),
		UnsavedChanges: s.svc.UnsavedChanges(),
	})
}

func (s *Server) listBooks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := toBookResponses(s.svc.ListAll())
	RespondWithList(c, books, len(books))
}

// searchBooks matches q case-sensitively against title and author. A missing
// q matches everything.
func (s *Server) searchBooks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := toBookResponses(s.svc.Search(c.Query("q")))
	RespondWithList(c, books, len(books))
}

func (s *Server) addBook(c *gin.Context) {
	var req AddBookRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	for _, f := range []struct {
		value, name string
		required    bool
	}{
		{req.Title, "title", true},
		{req.Author, "author", false},
		{req.ISBN, "isbn", false},
	} {
		if err := ValidateTextField(f.value, f.name, f.required); err != nil {
			RespondWithServiceError(c, err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.svc.AddBook(req.Title, req.Author, req.ISBN, string(req.TotalCopies))
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}
	s.events.Publish(realtime.EventBookAdded, book.Title, map[string]any{"total_copies": book.TotalCopies})
	RespondWithCreated(c, toBookResponse(book))
}

func (s *Server) borrowBook(c *gin.Context) {
	var req LoanRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.svc.Borrow(req.Title, string(req.Days))
	if err != nil {
		RespondWithServiceError(c, err, s.svc.Suggest(req.Title, suggestionLimit)...)
		return
	}
	s.events.Publish(realtime.EventBookBorrowed, res.Book.Title, map[string]any{
		"borrowed_copies": res.Book.BorrowedCopies,
		"due_date":        formatDueDate(res.DueDate),
	})
	RespondWithCreated(c, LoanResponse{
		Book:    toBookResponse(res.Book),
		DueDate: formatDueDate(res.DueDate),
		Saved:   !s.svc.UnsavedChanges(),
	})
}

func (s *Server) returnBook(c *gin.Context) {
	var req ReturnRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.svc.Return(req.Title)
	if err != nil {
		RespondWithServiceError(c, err, s.svc.Suggest(req.Title, suggestionLimit)...)
		return
	}
	s.events.Publish(realtime.EventBookReturned, res.Book.Title, map[string]any{
		"borrowed_copies": res.Book.BorrowedCopies,
		"overdue":         res.Overdue,
	})
	RespondWithOK(c, ReturnResponse{
		Book:    toBookResponse(res.Book),
		Overdue: res.Overdue,
		DueDate: formatDueDate(res.DueDate),
		Saved:   !s.svc.UnsavedChanges(),
	})
}

func (s *Server) listOverdue(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := toBookResponses(s.svc.ListOverdue())
	RespondWithList(c, books, len(books))
}

func (s *Server) saveCatalog(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.svc.Save(); err != nil {
		RespondWithServiceError(c, err)
		return
	}
	s.events.Publish(realtime.EventCatalogSaved, "", nil)
	RespondWithOK(c, MessageResponse{Message: "catalog saved"})
}

func (s *Server) getStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	RespondWithOK(c, s.svc.Stats())
}

// importCatalog appends the records in the request body, which uses the data
// file layout in the charset query parameter (utf-8 by default). The whole
// import is rejected on the first malformed line.
func (s *Server) importCatalog(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := codec.NewCharsetReader(c.Request.Body, c.Query("charset"))
	if err != nil {
		RespondWithValidationError(c, "charset", err.Error())
		return
	}
	res, err := s.svc.Import(body, nil)
	if errors.Is(err, codec.ErrMalformedRecord) {
		// The caller sent the bad record, so this is not a server fault
		RespondWithError(c, http.StatusBadRequest, err.Error(), "PARSE_ERROR")
		return
	}
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}
	s.events.Publish(realtime.EventCatalogImported, "", map[string]any{"added": res.Added, "total": res.Total})
	RespondWithCreated(c, res)
}

func (s *Server) exportCatalog(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if err := ValidateStringInList(format, "format", exportFormats); err != nil {
		RespondWithServiceError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.svc.Export(&buf, format); err != nil {
		RespondWithServiceError(c, err)
		return
	}
	contentType := "application/json; charset=utf-8"
	if format != "json" {
		contentType = "application/yaml; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) listBackups(c *gin.Context) {
	backups, err := backup.ListBackups(s.cfg.Backup.BackupDir)
	if err != nil {
		RespondWithServiceError(c, err)
		return
	}
	if backups == nil {
		backups = []backup.BackupInfo{}
	}
	RespondWithList(c, backups, len(backups))
}

// createBackup archives the data file as it is on disk. Loans held only in
// memory are not part of the archive.
func (s *Server) createBackup(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg.Backup
	cfg.Logger = s.log
	info, err := backup.CreateBackup(s.svc.DataFile(), cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			RespondWithNotFound(c, "data file", s.svc.DataFile())
			return
		}
		RespondWithServiceError(c, err)
		return
	}
	RespondWithCreated(c, info)
}

// restoreBackup replaces the data file with an archived catalog and reloads
// it. Any loan changes held in memory are discarded.
func (s *Server) restoreBackup(c *gin.Context) {
	var req RestoreRequest
	if HandleBindError(c, c.ShouldBindJSON(&req)) {
		return
	}
	if err := ValidateBackupFilename(req.Filename); err != nil {
		RespondWithServiceError(c, err)
		return
	}
	verify := true
	if req.Verify != nil {
		verify = *req.Verify
	}

	archive := filepath.Join(s.cfg.Backup.BackupDir, req.Filename)
	if _, err := os.Stat(archive); err != nil {
		RespondWithNotFound(c, "backup", req.Filename)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := backup.RestoreBackup(archive, s.svc.DataFile(), verify, s.cfg.WriteConfig); err != nil {
		RespondWithServiceError(c, err)
		return
	}
	if err := s.svc.Reload(); err != nil {
		RespondWithServiceError(c, err)
		return
	}
	s.log.Info("catalog restored from backup", zap.String("backup", req.Filename))
	s.events.Publish(realtime.EventCatalogReloaded, "", map[string]any{"backup": req.Filename})
	RespondWithOK(c, MessageResponse{Message: "catalog restored from " + req.Filename})
}
