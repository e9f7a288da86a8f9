// Package normalize canonicalizes the partial dates and times found in
// syllabi to ISO dates and 24-hour clock times. Unrecognized input always
// degrades to syllabus.NotListed.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/sylex/internal/syllabus"
)

// Months maps three-letter month prefixes to month numbers.
var Months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// MonthPattern matches a month name or abbreviation; use MonthNumber on the
// captured text.
const MonthPattern = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`

var (
	isoDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	monthDayRe  = regexp.MustCompile(`(?i)^(` + MonthPattern + `)\w*\.?\s+(\d{1,2})$`)
	clockRe     = regexp.MustCompile(`^\d{2}:\d{2}$`)
	timeRe      = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([aApP]\.?[mM]?\.?)?$`)
	rangeRe     = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*[-–]\s*(\d{1,2}):(\d{2})\s*([aApP]\.?[mM]?\.?)`)
)

// MonthNumber resolves a month name or abbreviation ("Feb", "february.").
func MonthNumber(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}
	m, ok := Months[name[:3]]
	return m, ok
}

// MonthDay builds an ISO date. A zero year or an impossible calendar date
// yields the sentinel.
func MonthDay(month, day, year int) string {
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return syllabus.NotListed
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return syllabus.NotListed
	}
	return t.Format("2006-01-02")
}

// Date canonicalizes raw given the resolved academic year (0 when unknown).
func Date(raw string, year int) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "not listed", "tbd", "tba":
		return syllabus.NotListed
	}
	if isoDateRe.MatchString(s) {
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return syllabus.NotListed
		}
		return s
	}
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		yr := year
		if m[3] != "" {
			yr, _ = strconv.Atoi(m[3])
		}
		if yr > 0 && yr < 100 {
			yr += 2000
		}
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return MonthDay(month, day, yr)
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		month, _ := MonthNumber(m[1])
		day, _ := strconv.Atoi(m[2])
		return MonthDay(month, day, year)
	}
	return syllabus.NotListed
}

// Time canonicalizes raw to HH:MM (24-hour).
func Time(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "not listed") {
		return syllabus.NotListed
	}
	if clockRe.MatchString(s) {
		h, _ := strconv.Atoi(s[:2])
		mn, _ := strconv.Atoi(s[3:])
		if h > 23 || mn > 59 {
			return syllabus.NotListed
		}
		return s
	}
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return syllabus.NotListed
	}
	h, _ := strconv.Atoi(m[1])
	mn, _ := strconv.Atoi(m[2])
	h = applyMeridiem(h, meridiem(m[3]))
	if h > 23 || mn > 59 {
		return syllabus.NotListed
	}
	return clock(h, mn)
}

// TimeRange parses "7:30-9:00p" style ranges where the meridiem is written
// once, after the end time. The start takes the afternoon when doing so
// keeps it at or before the end.
func TimeRange(text string) (start, end string) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return syllabus.NotListed, syllabus.NotListed
	}
	h1, _ := strconv.Atoi(m[1])
	m1, _ := strconv.Atoi(m[2])
	h2, _ := strconv.Atoi(m[3])
	m2, _ := strconv.Atoi(m[4])

	switch meridiem(m[5]) {
	case 'p':
		if h2 != 12 {
			h2 += 12
		}
		if h1+12 <= h2 {
			h1 += 12
		}
	case 'a':
		if h2 == 12 {
			h2 = 0
		}
		if h1 == 12 {
			h1 = 0
		}
	}
	return clock(h1, m1), clock(h2, m2)
}

func meridiem(s string) byte {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	return s[0]
}

func applyMeridiem(h int, ap byte) int {
	switch {
	case ap == 'p' && h != 12:
		return h + 12
	case ap == 'a' && h == 12:
		return 0
	}
	return h
}

func clock(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}
