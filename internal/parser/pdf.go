package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/sylex/internal/doctree"
	"github.com/dgallion1/sylex/internal/layout"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. Each page is rebuilt from positioned glyphs
// and ruling boxes; pdftotext is used when the Go library yields nothing.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "sylex-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		if text, ferr := extractPdftotext(tmpPath); ferr == nil {
			pages, err = strings.Split(text, "\f"), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".pdf"),
	}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Text: page,
			Page: i + 1,
		})
	}
	return tree, nil
}

// extractPDFPages returns one entry per page, keeping empty strings for
// unreadable pages so page numbers stay aligned.
func extractPDFPages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText(i, page))
	}
	return pages, nil
}

// pageText renders one page through the layout extractor, degrading to the
// library's plain text when the content stream cannot be walked.
func pageText(num int, page pdflib.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = plainText(page)
		}
	}()

	text = layout.Text(toLayoutPage(num, page.Content()))
	if strings.TrimSpace(text) == "" {
		text = plainText(page)
	}
	return text
}

func plainText(page pdflib.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	s, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return s
}

// toLayoutPage flips PDF user space (y up) to top-down coordinates and
// merges per-glyph text into runs.
func toLayoutPage(num int, content pdflib.Content) layout.Page {
	top := 0.0
	for _, t := range content.Text {
		top = math.Max(top, t.Y+t.FontSize)
	}
	for _, r := range content.Rect {
		top = math.Max(top, r.Max.Y)
	}

	glyphs := make([]layout.Span, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" || t.S == "\n" {
			continue
		}
		glyphs = append(glyphs, layout.Span{
			X:    t.X,
			Y:    top - t.Y,
			W:    t.W,
			H:    t.FontSize,
			Text: t.S,
		})
	}

	rules := make([]layout.Rect, 0, len(content.Rect))
	for _, r := range content.Rect {
		rules = append(rules, layout.Rect{
			X0: math.Min(r.Min.X, r.Max.X),
			Y0: top - math.Max(r.Min.Y, r.Max.Y),
			X1: math.Max(r.Min.X, r.Max.X),
			Y1: top - math.Min(r.Min.Y, r.Max.Y),
		})
	}

	return layout.Page{
		Number: num,
		Spans:  layout.MergeRuns(glyphs),
		Rules:  rules,
	}
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
