package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/sylex/internal/normalize"
	"github.com/dgallion1/sylex/internal/syllabus"
)

// monthDay captures a month name and day number, e.g. "Feb 12", "March 6".
const monthDay = `\b(` + normalize.MonthPattern + `)[a-z]*\.?\s+(\d{1,2})\b`

var (
	prelimListRe = regexp.MustCompile(`(?i)\bPrelims?\s*:\s*(` + timeRangePattern + `)\s*[-–]\s*([^\n.]{5,120})`)
	slashDateRe  = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	dateExamRe   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\s+(?:EXAM|Exam)\s+(\d+)\b`)
	examDateRe   = regexp.MustCompile(`\b(?:EXAM|Exam)\s+(\d+)\b[^\n]{0,40}?\b(\d{1,2})/(\d{1,2})\b`)
	namedExamRe  = regexp.MustCompile(`(?i)\b((?:PRELIM|MIDTERM)\s*\d*)\b[^\n]{0,60}?` + monthDay)
	midtermRe    = regexp.MustCompile(`(?i)\bMidterm\b[^\n]{0,40}?` + monthDay)
)

// Exams finds prelim, midterm and numbered exam announcements. Final exams
// are never extracted. Confidence is 95 when the year is known, else 70.
func Exams(text string, year int) []syllabus.Exam {
	confidence := 70
	if year > 0 {
		confidence = 95
	}
	var out []syllabus.Exam
	add := func(desc, date, timeDue, endTime string) {
		out = append(out, syllabus.Exam{
			Description: desc,
			Date:        date,
			TimeDue:     timeDue,
			EndTime:     endTime,
			Confidence:  confidence,
		})
	}

	// "Prelims: 7:30-9:00p - Thurs 2/12; Tues 3/17; Thurs 4/23"
	if m := prelimListRe.FindStringSubmatch(text); m != nil {
		start, end := normalize.TimeRange(m[1])
		for i, d := range slashDateRe.FindAllStringSubmatch(m[2], -1) {
			add(fmt.Sprintf("Prelim %d", i+1), slashDate(d[1], d[2], year), start, end)
		}
	}

	for _, m := range dateExamRe.FindAllStringSubmatch(text, -1) {
		add("Exam "+m[3], slashDate(m[1], m[2], year), syllabus.NotListed, "")
	}
	for _, m := range examDateRe.FindAllStringSubmatch(text, -1) {
		add("Exam "+m[1], slashDate(m[2], m[3], year), syllabus.NotListed, "")
	}
	for _, m := range namedExamRe.FindAllStringSubmatch(text, -1) {
		add(titleCase(m[1]), namedDate(m[2], m[3], year), syllabus.NotListed, "")
	}
	for _, m := range midtermRe.FindAllStringSubmatch(text, -1) {
		add("Midterm", namedDate(m[1], m[2], year), syllabus.NotListed, "")
	}

	return syllabus.Dedupe(out, syllabus.ExamKey)
}

func slashDate(mm, dd string, year int) string {
	month, _ := strconv.Atoi(mm)
	day, _ := strconv.Atoi(dd)
	return normalize.MonthDay(month, day, year)
}

func namedDate(mon, dd string, year int) string {
	month, ok := normalize.MonthNumber(mon)
	if !ok {
		return syllabus.NotListed
	}
	day, _ := strconv.Atoi(dd)
	return normalize.MonthDay(month, day, year)
}

// titleCase turns "PRELIM 2" or "midterm" into "Prelim 2" / "Midterm".
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
