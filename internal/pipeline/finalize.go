package pipeline

import (
	"github.com/dgallion1/sylex/internal/normalize"
	"github.com/dgallion1/sylex/internal/patterns"
	"github.com/dgallion1/sylex/internal/syllabus"
)

// MergeChunks folds per-chunk outputs in chunk order. The first chunk's
// lists seed the aggregate unchanged; later chunks only add entries whose
// key is new. Scalar fields take the first value that is neither empty nor
// the sentinel. The result is never nil.
func MergeChunks(outputs []*syllabus.Data) *syllabus.Data {
	merged := &syllabus.Data{}
	seeded := false
	for _, d := range outputs {
		if d == nil {
			continue
		}
		merged.CourseName = firstKnown(merged.CourseName, d.CourseName)
		merged.Instructor = firstKnown(merged.Instructor, d.Instructor)
		merged.Summary = firstKnown(merged.Summary, d.Summary)
		if !seeded {
			merged.Lectures = append([]syllabus.Lecture(nil), d.Lectures...)
			merged.Assignments = append([]syllabus.Assignment(nil), d.Assignments...)
			merged.Exams = append([]syllabus.Exam(nil), d.Exams...)
			seeded = true
		} else {
			merged.Lectures = syllabus.Merge(merged.Lectures, d.Lectures, syllabus.LectureKey)
			merged.Assignments = syllabus.Merge(merged.Assignments, d.Assignments, syllabus.AssignmentKey)
			merged.Exams = syllabus.Merge(merged.Exams, d.Exams, syllabus.ExamKey)
		}
		if d.Grading != nil && (merged.Grading == nil || len(merged.Grading.Categories) == 0 && len(d.Grading.Categories) > 0) {
			g := *d.Grading
			merged.Grading = &g
		}
	}
	return merged
}

// Finalize normalizes every date and time, folds in the deterministic
// pattern results from the full text, dedups every list, fills missing
// course scalars, and totals the grading weights.
func Finalize(d *syllabus.Data, text string, year int) {
	for i := range d.Assignments {
		a := &d.Assignments[i]
		a.Date = normalize.Date(a.Date, year)
		a.TimeDue = normalize.Time(a.TimeDue)
	}
	for i := range d.Exams {
		e := &d.Exams[i]
		e.Date = normalize.Date(e.Date, year)
		e.TimeDue = normalize.Time(e.TimeDue)
		if e.EndTime != "" {
			if e.EndTime = normalize.Time(e.EndTime); e.EndTime == syllabus.NotListed {
				e.EndTime = ""
			}
		}
	}
	for i := range d.Lectures {
		l := &d.Lectures[i]
		l.StartTime = normalize.Time(l.StartTime)
		l.EndTime = normalize.Time(l.EndTime)
		l.StartDate = normalize.Date(l.StartDate, year)
		l.EndDate = normalize.Date(l.EndDate, year)
		if l.Location == "" {
			l.Location = syllabus.NotListed
		}
		if l.Type == "" {
			l.Type = syllabus.TypeLecture
		}
	}

	d.Exams = syllabus.Merge(d.Exams, patterns.Exams(text, year), syllabus.ExamKey)
	d.Assignments = syllabus.Merge(d.Assignments, patterns.Assignments(text, year), syllabus.AssignmentKey)

	if found := patterns.Lectures(text); len(d.Lectures) == 0 {
		d.Lectures = found
	} else {
		d.Lectures = syllabus.Merge(d.Lectures, found, syllabus.LectureKey)
	}

	d.Exams = syllabus.Dedupe(d.Exams, syllabus.ExamFinalKey)
	d.Assignments = syllabus.Dedupe(d.Assignments, syllabus.AssignmentFinalKey)
	d.Lectures = syllabus.Dedupe(d.Lectures, syllabus.LectureKey)

	name, instructor := patterns.CourseInfo(text)
	d.CourseName = orSentinel(firstKnown(d.CourseName, name))
	d.Instructor = orSentinel(firstKnown(d.Instructor, instructor))
	d.Summary = orSentinel(d.Summary)

	d.Grading.SumWeights()
	d.EnsureLists()
}

func firstKnown(current, next string) string {
	if current != "" && current != syllabus.NotListed {
		return current
	}
	if next != "" {
		return next
	}
	return current
}

func orSentinel(s string) string {
	if s == "" {
		return syllabus.NotListed
	}
	return s
}
