package patterns

import (
	"regexp"
	"strings"
)

var (
	courseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*Course(?:\s+Name)?\s*:\s*([^\n]+)`),
		regexp.MustCompile(`(?m)\b([A-Z]{2,4}\s*\d{3,4}[A-Z]?)\s*[-–:]\s*([^\n]+)`),
	}
	instructorRe = regexp.MustCompile(`(?im)^\s*(?:Instructor|Professor|Faculty|Lecturer)s?\s*:\s*([^\n]+)`)
)

// CourseInfo recognizes a labelled course title ("Course: ...", or a
// catalog code followed by a title) and a labelled instructor line. Either
// result may be empty.
func CourseInfo(text string) (name, instructor string) {
	if m := courseRes[0].FindStringSubmatch(text); m != nil {
		name = clean(m[1])
	} else if m := courseRes[1].FindStringSubmatch(text); m != nil {
		name = clean(strings.Join(strings.Fields(m[1]), " ") + " - " + m[2])
	}
	if m := instructorRe.FindStringSubmatch(text); m != nil {
		instructor = clean(m[1])
	}
	return name, instructor
}

// clean trims whitespace, collapses inner runs of spaces and drops a
// trailing separator left over from a two-column layout.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, " ,;|")
}
