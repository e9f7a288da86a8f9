// Package patterns holds the deterministic recognizers that scan full
// syllabus text for lecture meetings, exams, assignments and course info.
// Their output is a completion layer for model extraction; an absent match
// is an empty contribution, never an error.
package patterns

import (
	"regexp"
	"sort"
	"strings"
)

// Two-letter day abbreviations, each optionally followed by the rest of its
// full name. Saturday goes first so its "tu" is consumed before the Tuesday
// pattern runs.
var twoLetterDays = []struct {
	re  *regexp.Regexp
	day int
}{
	{regexp.MustCompile(`(?i)sa(?:t(?:urday)?)?s?`), 5},
	{regexp.MustCompile(`(?i)su(?:n(?:day)?)?s?`), 6},
	{regexp.MustCompile(`(?i)tu(?:e(?:s(?:day)?)?)?s?`), 1},
	{regexp.MustCompile(`(?i)th(?:u(?:r(?:s(?:day)?)?)?)?s?`), 3},
}

var fullDays = []struct {
	re  *regexp.Regexp
	day int
}{
	{regexp.MustCompile(`(?i)\bmon(?:day)?s?`), 0},
	{regexp.MustCompile(`(?i)\bwed(?:nesday)?s?`), 2},
	{regexp.MustCompile(`(?i)\bfri(?:day)?s?`), 4},
}

var singleLetterDays = map[rune]int{'M': 0, 'T': 1, 'W': 2, 'F': 4}

// ParseDays decodes a weekday notation ("MWF", "TTh", "Tu/Th", "Mon & Wed",
// "Tuesdays & Thursdays") into sorted unique day indices, Monday=0. Two
// letter abbreviations are consumed first so that the remaining capitals
// M, T, W and F can be read as single-letter days.
func ParseDays(s string) []int {
	seen := make(map[int]bool)
	rest := strings.TrimSpace(s)

	for _, d := range twoLetterDays {
		if d.re.MatchString(rest) {
			seen[d.day] = true
			rest = d.re.ReplaceAllString(rest, " ")
		}
	}
	for _, d := range fullDays {
		if d.re.MatchString(rest) {
			seen[d.day] = true
			rest = d.re.ReplaceAllString(rest, " ")
		}
	}
	for _, r := range rest {
		if day, ok := singleLetterDays[r]; ok {
			seen[day] = true
		}
	}

	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
