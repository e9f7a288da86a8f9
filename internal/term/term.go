// Package term finds the academic term and the explicit semester bounds
// stated in a syllabus.
package term

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/sylex/internal/normalize"
)

// Term is a season and a four-digit year.
type Term struct {
	Season string `json:"season" yaml:"season"`
	Year   int    `json:"year" yaml:"year"`
}

func (t Term) String() string {
	if t.Year == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%s %d", t.Season, t.Year)
}

// Bounds holds the first and last day of instruction as ISO dates. An empty
// field means the syllabus does not state it.
type Bounds struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Checked in order; the first match wins.
var termPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(Spring|Fall|Summer|Winter|Autumn)\s+(20\d{2})\b`),
	regexp.MustCompile(`(?i)\b(Sp|FA|SU|Wi)\s+(20\d{2})\b`),
	regexp.MustCompile(`(?i)\b(Sp|FA|SU|Wi)(2[0-9])\b`),
}

var seasons = map[string]string{
	"sp": "Spring", "fa": "Fall", "su": "Summer", "wi": "Winter",
	"spring": "Spring", "fall": "Fall", "summer": "Summer",
	"winter": "Winter", "autumn": "Fall",
}

var (
	startPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)classes?\s+begins?\s+([A-Za-z0-9/ ]+)`),
		regexp.MustCompile(`(?i)first\s+day\s+of\s+(?:class|instruction)\s*:?\s*([A-Za-z0-9/ ]+)`),
	}
	endPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)classes?\s+ends?\s+([A-Za-z0-9/ ]+)`),
		regexp.MustCompile(`(?i)last\s+day\s+of\s+(?:class|instruction)\s*:?\s*([A-Za-z0-9/ ]+)`),
	}
	boundSlashRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?`)
	boundMonthRe = regexp.MustCompile(`(?i)^(` + normalize.MonthPattern + `)\w*\.?\s+(\d{1,2})`)
)

// Detect returns the first season/year mention in text.
func Detect(text string) (Term, bool) {
	for _, re := range termPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		season, ok := seasons[strings.ToLower(m[1])]
		if !ok {
			season = strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		}
		year, _ := strconv.Atoi(m[2])
		if len(m[2]) == 2 {
			year += 2000
		}
		return Term{Season: season, Year: year}, true
	}
	return Term{}, false
}

// DetectBounds finds explicit "classes begin/end" style statements. Month-name
// dates need year to resolve; slash dates may carry their own.
func DetectBounds(text string, year int) Bounds {
	return Bounds{
		Start: findBound(text, startPatterns, year),
		End:   findBound(text, endPatterns, year),
	}
}

func findBound(text string, patterns []*regexp.Regexp, year int) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(m[1])
		if dm := boundSlashRe.FindStringSubmatch(raw); dm != nil {
			yr := year
			if dm[3] != "" {
				yr, _ = strconv.Atoi(dm[3])
			}
			if yr > 0 && yr < 100 {
				yr += 2000
			}
			if yr == 0 {
				return ""
			}
			month, _ := strconv.Atoi(dm[1])
			day, _ := strconv.Atoi(dm[2])
			return isoOrEmpty(normalize.MonthDay(month, day, yr))
		}
		if nm := boundMonthRe.FindStringSubmatch(raw); nm != nil && year > 0 {
			month, _ := normalize.MonthNumber(nm[1])
			day, _ := strconv.Atoi(nm[2])
			return isoOrEmpty(normalize.MonthDay(month, day, year))
		}
	}
	return ""
}

func isoOrEmpty(s string) string {
	if len(s) != len("2006-01-02") {
		return ""
	}
	return s
}
