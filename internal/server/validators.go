// file: internal/server/validators.go
// version: 2.0.0
// guid: 9b0c1d2e-3f4a-5b6c-7d8e-9f0a1b2c3d4e

package server

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jdfalk/lending-library/internal/codec"
)

// maxFieldLength bounds free-text fields accepted over HTTP
const maxFieldLength = 512

// ValidationError represents a validation error with code
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateTextField rejects values the record format cannot hold. A comma
// or line break would corrupt the data file on the next load.
func ValidateTextField(value, fieldName string, required bool) error {
	if required && strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   fieldName,
			Message: fieldName + " is required",
			Code:    strings.ToUpper(fieldName) + "_REQUIRED",
		}
	}
	if len(value) > maxFieldLength {
		return ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must not exceed %d characters", fieldName, maxFieldLength),
			Code:    strings.ToUpper(fieldName) + "_TOO_LONG",
		}
	}
	if strings.Contains(value, codec.Delimiter) || strings.ContainsAny(value, "\r\n") {
		return ValidationError{
			Field:   fieldName,
			Message: fieldName + " must not contain commas or line breaks",
			Code:    strings.ToUpper(fieldName) + "_INVALID_CHARACTERS",
		}
	}
	return nil
}

// ValidateBackupFilename accepts only a bare archive name inside the backup
// directory.
func ValidateBackupFilename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{
			Field:   "filename",
			Message: "filename is required",
			Code:    "FILENAME_REQUIRED",
		}
	}
	if name != filepath.Base(name) || name == "." || name == ".." || !strings.HasSuffix(name, ".tar.gz") {
		return ValidationError{
			Field:   "filename",
			Message: "filename must be a backup archive name",
			Code:    "FILENAME_INVALID",
		}
	}
	return nil
}

// ValidateStringInList validates that a string is one of the allowed values
func ValidateStringInList(value string, fieldName string, allowed []string) error {
	value = strings.TrimSpace(value)
	for _, allowed := range allowed {
		if value == allowed {
			return nil
		}
	}
	return ValidationError{
		Field:   fieldName,
		Message: fmt.Sprintf("%s must be one of: %v", fieldName, allowed),
		Code:    fmt.Sprintf("%s_INVALID_VALUE", strings.ToUpper(fieldName)),
	}
}
