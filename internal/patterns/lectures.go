package patterns

import (
	"regexp"
	"strings"

	"github.com/dgallion1/sylex/internal/normalize"
	"github.com/dgallion1/sylex/internal/syllabus"
)

const timeRangePattern = `[\d:]+\s*[-–]\s*[\d:]+\s*[aApP]\.?[mM]?\.?`

// lectureRe matches "MWF, 9:05-9:55a, or 10:10-11:00a, in 200 Baker Lab"
// and "Tuesdays & Thursdays, 2:55-4:10 PM, Olin Hall 155".
var lectureRe = regexp.MustCompile(`(?im)` +
	`(?:Lectures?\s*:?\s*)?` +
	`(MWF|MW|TTh|Tu/?Th|` +
	`(?:Mon(?:day)?s?(?:\s*[,&/]\s*)?)?(?:Wed(?:nesday)?s?(?:\s*[,&/]\s*)?)?(?:Fri(?:day)?s?)?` +
	`|Tuesdays?\s*(?:[&and]+\s*Thursdays?)?)` +
	`[,\s]+` +
	`(` + timeRangePattern + `)` +
	`(?:\s*(?:,\s*)?(?:or)\s*(` + timeRangePattern + `))?` +
	`(?:[, \t]+(?:in\s+)?([^\n,]{3,50}))?`)

// Lectures finds weekly meeting patterns. Every day in the notation is
// paired with every listed time option, so "MWF ... or ..." yields six
// entries.
func Lectures(text string) []syllabus.Lecture {
	var out []syllabus.Lecture
	for _, m := range lectureRe.FindAllStringSubmatch(text, -1) {
		days := ParseDays(m[1])
		if len(days) == 0 {
			continue
		}
		location := strings.TrimRight(strings.TrimSpace(m[4]), ".;")
		if location == "" {
			location = syllabus.NotListed
		}

		for _, opt := range []string{m[2], m[3]} {
			if strings.TrimSpace(opt) == "" {
				continue
			}
			start, end := normalize.TimeRange(opt)
			if start == syllabus.NotListed {
				continue
			}
			for _, day := range days {
				out = append(out, syllabus.Lecture{
					Day:       day,
					StartTime: start,
					EndTime:   end,
					StartDate: syllabus.NotListed,
					EndDate:   syllabus.NotListed,
					Location:  location,
					Type:      syllabus.TypeLecture,
				})
			}
		}
	}
	return syllabus.Dedupe(out, syllabus.LectureKey)
}
