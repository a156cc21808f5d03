package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

var (
	// ErrUnsupported means the payload is not a PDF.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrNoText means the PDF parsed but carries no extractable text.
	ErrNoText = errors.New("no extractable text")
)

// Extractor turns a document payload into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error)
}

// PDFExtractor extracts text with github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// New returns the default extractor.
func New() PDFExtractor {
	return PDFExtractor{}
}

// Extract checks the payload is a PDF and returns its text, pages joined by newlines.
func (PDFExtractor) Extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !IsPDF(data, mimeType, fileName) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, normalizeMimeType(mimeType))
	}
	text, err := extractPDF(ctx, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// IsPDF reports whether data looks like a PDF. The magic header decides;
// the declared mime type and extension only matter for generic uploads.
func IsPDF(data []byte, mimeType, fileName string) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return false
	}
	switch normalizeMimeType(mimeType) {
	case "", mimePDF, "application/octet-stream", "application/x-pdf":
		return true
	default:
		return strings.EqualFold(filepath.Ext(fileName), ".pdf")
	}
}

func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	fonts := make(map[string]*pdf.Font)
	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		if buf.Len() > 0 && content != "" {
			buf.WriteByte('\n')
		}
		buf.WriteString(content)
	}
	return buf.String(), nil
}

func normalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
