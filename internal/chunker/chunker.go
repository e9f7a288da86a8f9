// Package chunker partitions page-marked document text into bounded chunks
// for per-chunk extraction.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/sylex/internal/doctree"
)

// DefaultLimit is the character budget per chunk.
const DefaultLimit = 60000

var pageMarkerRe = regexp.MustCompile(`\[PAGE (\d+)\]`)

// Split returns text as one chunk when it fits within limit characters.
// Otherwise pages (each starting at a page marker) are packed greedily into
// chunks; a page that alone exceeds the limit is split at blank lines. Only
// a single paragraph longer than limit can produce an oversized chunk.
func Split(text string, limit int) []doctree.Chunk {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if runeLen(text) <= limit {
		return []doctree.Chunk{newChunk(text, 0)}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		curLen = 0
	}
	// add appends piece to the current chunk, starting a new chunk first
	// when the piece would push it past the limit.
	add := func(piece, sep string) {
		n := runeLen(piece)
		if curLen > 0 && curLen+runeLen(sep)+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += runeLen(sep)
		}
		cur.WriteString(piece)
		curLen += n
	}

	for _, page := range splitPages(text) {
		if runeLen(page) <= limit {
			add(page, "\n\n")
			continue
		}
		flush()
		for _, para := range strings.Split(page, "\n\n") {
			if strings.TrimSpace(para) == "" {
				continue
			}
			add(para, "\n\n")
		}
		flush()
	}
	flush()

	chunks := make([]doctree.Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, newChunk(p, i))
	}
	return chunks
}

// splitPages cuts text before every page marker. Text ahead of the first
// marker is kept as its own leading piece. Pieces are trimmed and empty
// pieces dropped.
func splitPages(text string) []string {
	locs := pageMarkerRe.FindAllStringIndex(text, -1)
	var pages []string
	prev := 0
	for _, loc := range locs {
		if s := strings.TrimSpace(text[prev:loc[0]]); s != "" {
			pages = append(pages, s)
		}
		prev = loc[0]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		pages = append(pages, s)
	}
	return pages
}

func newChunk(text string, index int) doctree.Chunk {
	c := doctree.Chunk{Text: text, Index: index}
	pages := Markers(text)
	if len(pages) > 0 {
		c.PageStart = pages[0]
		c.PageEnd = pages[len(pages)-1]
	}
	return c
}

// Markers returns the page numbers of the page markers in text, in order.
func Markers(text string) []int {
	var out []int
	for _, m := range pageMarkerRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
