package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestFileReader_Text(t *testing.T) {
	path := writeFile(t, "notes.md", []byte("# Budget\n\nApproved for 2024."))
	text, err := FileReader{}.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Budget\n\nApproved for 2024.", text)
}

func TestFileReader_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.txt")},
		{"invalid utf-8", writeFile(t, "binary.dat", []byte{0xff, 0xfe, 0xfd})},
		{"corrupt pdf by extension", writeFile(t, "report.pdf", []byte("not really a pdf"))},
		{"corrupt pdf by magic", writeFile(t, "upload.bin", []byte("%PDF-1.4\ngarbage"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FileReader{}.Read(context.Background(), tt.path)
			assert.ErrorIs(t, err, ErrReadFailed)
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF("a.PDF", nil))
	assert.True(t, isPDF("upload", []byte("%PDF-1.7")))
	assert.False(t, isPDF("a.txt", []byte("hello")))
}

// buildPDF assembles a minimal PDF with one Helvetica page per entry of
// pages, each showing its text with a single Tj.
func buildPDF(pages ...string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestFileReader_PDF(t *testing.T) {
	path := writeFile(t, "report.pdf", buildPDF("First page budget text", "Second page forecast text"))

	text, err := FileReader{}.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "First page budget text\nSecond page forecast text", text)
}

func TestFileReader_PDFDetectedByMagic(t *testing.T) {
	path := writeFile(t, "upload.bin", buildPDF("Only page"))

	text, err := FileReader{}.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Only page", text)
}

func TestFileReader_PDFFontEncoding(t *testing.T) {
	// 0xE9 is e-acute in WinAnsiEncoding
	path := writeFile(t, "cv.pdf", buildPDF("R\xe9sum\xe9 attached"))

	text, err := FileReader{}.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Résumé attached", text)
}
