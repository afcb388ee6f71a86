// file: internal/codec/encoding.go
// version: 1.0.0
// guid: 5a1c7e3b-9d2f-4b8a-a6c4-3e0f1d2b7c95

package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// legacyCharsets lists the single-byte encodings older catalog files were
// commonly written in.
var legacyCharsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"windows-1254": charmap.Windows1254,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-9":   charmap.ISO8859_9,
}

// Charsets returns the accepted charset names, utf-8 included.
func Charsets() []string {
	names := []string{"utf-8"}
	for name := range legacyCharsets {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// NewCharsetReader returns a reader that converts r from charset to UTF-8.
// An empty charset or utf-8 returns r unchanged.
func NewCharsetReader(r io.Reader, charset string) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	switch name {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, ok := legacyCharsets[name]
	if !ok {
		return nil, fmt.Errorf("unsupported charset %q (supported: %s)", charset, strings.Join(Charsets(), ", "))
	}
	return enc.NewDecoder().Reader(r), nil
}
