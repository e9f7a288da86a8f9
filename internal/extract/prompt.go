package extract

import (
	"fmt"
	"strings"

	"github.com/dgallion1/sylex/internal/syllabus"
)

const SystemPrompt = `You extract structured course data from university syllabi.
Report only what the text states explicitly. Never guess.

Rules:
- A value that is not stated explicitly is "Not Listed", and its confidence is at most 70.
- Days of the week are integers: 0=Mon 1=Tue 2=Wed 3=Thu 4=Fri 5=Sat 6=Sun.
- Times are 24-hour HH:MM. Convert AM/PM when shown.
- Dates are YYYY-MM-DD. Resolve month/day dates with the semester year given below.
- Office hours are not lectures.
- Compressed day codes expand to one entry per day: MWF is Mon, Wed and Fri; TTh or Tu/Th is Tue and Thu.
- When a meeting offers alternative times ("9:05-9:55 or 10:10-11:00"), emit every option for every day.
- A list such as "Prelims: TIME - Date1; Date2" becomes one exam entry per date.
- Final exams are never listed under exams.
- Grading given only in points goes into the category description. Do not invent percentages.
- Confidence: 85-100 when explicit, 70-84 with minor ambiguity, 50-69 when uncertain.`

const requiredFields = `Required fields:
- course_name, instructor, summary (2-3 sentences)
- lectures: [{day, start_time, end_time, start_date, end_date, location, type (lecture|lab|discussion)}]
- assignments: [{description, date, time_due, confidence}]
- exams: [{description, date, time_due, confidence}]
- grading: {categories: [{name, weight, description}], confidence}`

// BuildUserPrompt renders the per-chunk prompt. Empty term or bounds are
// reported to the model as unknown.
func BuildUserPrompt(term, start, end, chunkText string) string {
	if term == "" {
		term = "Unknown"
	}
	if start == "" {
		start = syllabus.NotListed
	}
	if end == "" {
		end = syllabus.NotListed
	}

	var sb strings.Builder
	sb.WriteString("Extract structured data from this syllabus.\n\n")
	fmt.Fprintf(&sb, "Semester: %s\n", term)
	fmt.Fprintf(&sb, "Semester start: %s\n", start)
	fmt.Fprintf(&sb, "Semester end: %s\n\n", end)
	sb.WriteString("Convert every partial date (\"2/12\", \"Sep 3\") to YYYY-MM-DD using the semester year above.\n\n")
	sb.WriteString(requiredFields)
	fmt.Fprintf(&sb, "\n\nUse %q for any field the text does not state.\n\n", syllabus.NotListed)
	sb.WriteString("Syllabus text:\n")
	sb.WriteString(chunkText)
	return sb.String()
}
