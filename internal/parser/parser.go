package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/sylex/internal/doctree"
)

// ErrUnsupported is returned when no parser recognizes a document.
var ErrUnsupported = errors.New("unsupported document format")

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options configures parsers that have tunables.
type Options struct {
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".xlsx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".xlsx":
		return &XLSXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupported, ext)
	}
}

// Detect picks a parser by extension, falling back to content sniffing for
// extensionless or unknown names (storage objects often have neither).
func Detect(data []byte, filename string, opts Options) (Parser, error) {
	if IsSupportedExtension(filename) {
		return ForFile(filename, opts)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return sniffZip(data)
	case looksLikeHTML(head):
		return &HTMLParser{}, nil
	case utf8.Valid(data):
		return &TextParser{}, nil
	}
	return nil, fmt.Errorf("%w: unrecognized content", ErrUnsupported)
}

// sniffZip tells DOCX from XLSX by their main part names.
func sniffZip(data []byte) (Parser, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: bad zip container", ErrUnsupported)
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return &DOCXParser{}, nil
		case "xl/workbook.xml":
			return &XLSXParser{}, nil
		}
	}
	return nil, fmt.Errorf("%w: zip without a document part", ErrUnsupported)
}

func looksLikeHTML(head []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(head)))
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html")
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
