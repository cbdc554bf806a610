package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// DocumentReader reads an uploaded file and decodes it to plain text.
type DocumentReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// FileReader reads documents from the local filesystem. PDFs are detected by
// extension or magic bytes; everything else must be UTF-8 text.
type FileReader struct{}

var _ DocumentReader = FileReader{}

func (FileReader) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	if isPDF(path, content) {
		text, err := extractPDF(content)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrReadFailed, filepath.Base(path), err)
		}
		return text, nil
	}

	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrReadFailed, filepath.Base(path))
	}
	return string(content), nil
}

func isPDF(path string, content []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf") || bytes.HasPrefix(content, pdfMagic)
}

// extractPDF concatenates each page's text in page order.
func extractPDF(content []byte) (text string, err error) {
	// the pdf package panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// nil lets each page resolve its own font encodings
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
