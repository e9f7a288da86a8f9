package extract

import (
	"regexp"
	"strings"

	"github.com/dgallion1/sylex/internal/syllabus"
)

var finalExamPattern = regexp.MustCompile(`(?i)\bfinal\s+(exam|examination)\b|^\s*final\s*$`)

var validLectureTypes = map[syllabus.LectureType]bool{
	syllabus.TypeLecture:    true,
	syllabus.TypeLab:        true,
	syllabus.TypeDiscussion: true,
}

// Sanitize clamps model output into the data model's ranges. Lectures with
// an impossible weekday are dropped, confidences are clamped to 0..100,
// unknown lecture types become "lecture", entries without a description are
// dropped, and final exams are removed.
func Sanitize(d *syllabus.Data) {
	if d == nil {
		return
	}
	d.CourseName = strings.TrimSpace(d.CourseName)
	d.Instructor = strings.TrimSpace(d.Instructor)
	d.Summary = strings.TrimSpace(d.Summary)

	lectures := d.Lectures[:0]
	for _, l := range d.Lectures {
		if l.Day < 0 || l.Day > 6 {
			continue
		}
		if !validLectureTypes[l.Type] {
			l.Type = syllabus.TypeLecture
		}
		l.Location = strings.TrimSpace(l.Location)
		lectures = append(lectures, l)
	}
	d.Lectures = lectures

	assignments := d.Assignments[:0]
	for _, a := range d.Assignments {
		a.Description = strings.TrimSpace(a.Description)
		if a.Description == "" {
			continue
		}
		a.Confidence = clampConfidence(a.Confidence)
		assignments = append(assignments, a)
	}
	d.Assignments = assignments

	exams := d.Exams[:0]
	for _, e := range d.Exams {
		e.Description = strings.TrimSpace(e.Description)
		if e.Description == "" || finalExamPattern.MatchString(e.Description) {
			continue
		}
		e.Confidence = clampConfidence(e.Confidence)
		exams = append(exams, e)
	}
	d.Exams = exams

	if d.Grading != nil {
		d.Grading.Confidence = clampConfidence(d.Grading.Confidence)
		cats := d.Grading.Categories[:0]
		for _, c := range d.Grading.Categories {
			c.Name = strings.TrimSpace(c.Name)
			if c.Name == "" {
				continue
			}
			if c.Weight < 0 {
				c.Weight = 0
			}
			cats = append(cats, c)
		}
		d.Grading.Categories = cats
	}
}

func clampConfidence(c int) int {
	return min(max(c, 0), 100)
}
