package patterns

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/sylex/internal/syllabus"
)

var (
	numberedDueRe = regexp.MustCompile(`\b(PS|HW|Problem\s+Set|Assignment)?\s*(#?)(\d{1,2})\s*(\(?)\s*[Dd]ue\s+(\d{1,2})/(\d{1,2})\)?`)
	setDueMonthRe = regexp.MustCompile(`(?i)\b(?:Problem\s+Set|PS|HW|Assignment)\s*#?(\d{1,2})\b[^\n]{0,30}?[Dd]ue\s+` + monthDay)
	shortDueRe    = regexp.MustCompile(`\b(HW|PS|Lab|Quiz)\s*(\d{1,2})\s+[Dd]ue\s+(\d{1,2})/(\d{1,2})\b`)
	bareDueRe     = regexp.MustCompile(`[Dd]ue\s+(\d{1,2})/(\d{1,2})\s*[-–]\s*(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)`)
)

// Assignments finds numbered problem sets, homeworks, labs and quizzes with
// due dates, plus bare "Due M/D - Weekday" lines as generic assignments.
// Confidence is 90 when the year is known, else 65; the bare form scores
// 15 lower, floored at 50.
func Assignments(text string, year int) []syllabus.Assignment {
	confidence := 65
	if year > 0 {
		confidence = 90
	}
	var out []syllabus.Assignment
	add := func(desc, date string, conf int) {
		out = append(out, syllabus.Assignment{
			Description: desc,
			Date:        date,
			TimeDue:     syllabus.NotListed,
			Confidence:  conf,
		})
	}

	// "#3 (Due 2/20)", "PS #3 (Due 2/20)"
	for _, loc := range numberedDueRe.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if loc[2*i] < 0 {
				return ""
			}
			return text[loc[2*i]:loc[2*i+1]]
		}
		label := strings.Join(strings.Fields(group(1)), " ")
		if label == "" {
			// Unlabelled numbers need a "#" or "(" marker and must not
			// follow another word, so "Lab 3 due 3/5" is left to shortDueRe.
			if group(2) == "" && group(4) == "" || followsWord(text[:loc[4]]) {
				continue
			}
			label = "Problem Set"
		}
		add(label+" #"+group(3), slashDate(group(5), group(6), year), confidence)
	}
	// "Problem Set #4 due Feb 14"
	for _, m := range setDueMonthRe.FindAllStringSubmatch(text, -1) {
		add("Problem Set #"+m[1], namedDate(m[2], m[3], year), confidence)
	}
	// "HW3 due 3/5"
	for _, m := range shortDueRe.FindAllStringSubmatch(text, -1) {
		add(m[1]+m[2], slashDate(m[3], m[4], year), confidence)
	}
	// "Due 4/2 - Wed"
	for _, m := range bareDueRe.FindAllStringSubmatch(text, -1) {
		add("Assignment", slashDate(m[1], m[2], year), max(confidence-15, 50))
	}

	return syllabus.Dedupe(out, syllabus.AssignmentKey)
}

func followsWord(before string) bool {
	before = strings.TrimRight(before, " \t")
	if before == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsLetter(r)
}
