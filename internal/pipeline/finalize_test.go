package pipeline

import (
	"testing"

	"github.com/dgallion1/sylex/internal/syllabus"
)

func TestMergeChunks_Empty(t *testing.T) {
	d := MergeChunks(nil)
	if d == nil {
		t.Fatal("expected non-nil data")
	}
	if d.CourseName != "" || d.Grading != nil {
		t.Errorf("expected zero data, got %+v", d)
	}
}

func TestMergeChunks_FirstKnownScalar(t *testing.T) {
	d := MergeChunks([]*syllabus.Data{
		{CourseName: syllabus.NotListed, Instructor: "Lee"},
		nil,
		{CourseName: "CS 3110", Instructor: "Someone Else"},
	})
	if d.CourseName != "CS 3110" {
		t.Errorf("sentinel should not block a later value, got %q", d.CourseName)
	}
	if d.Instructor != "Lee" {
		t.Errorf("first value should win, got %q", d.Instructor)
	}
}

func TestMergeChunks_GradingPrefersCategories(t *testing.T) {
	first := &syllabus.Grading{Confidence: 40}
	second := &syllabus.Grading{Categories: []syllabus.GradingCategory{{Name: "Exams", Weight: 50}}, Confidence: 80}
	third := &syllabus.Grading{Categories: []syllabus.GradingCategory{{Name: "Labs", Weight: 20}}}

	d := MergeChunks([]*syllabus.Data{{Grading: first}, {Grading: second}, {Grading: third}})
	if d.Grading == nil || len(d.Grading.Categories) != 1 || d.Grading.Categories[0].Name != "Exams" {
		t.Errorf("unexpected grading %+v", d.Grading)
	}
	if d.Grading == second {
		t.Error("merged grading should be a copy")
	}
}

func TestFinalize_NormalizesAndMergesPatterns(t *testing.T) {
	d := &syllabus.Data{
		Exams: []syllabus.Exam{
			{Description: "Prelim 1", Date: "Feb 12", TimeDue: "7:30 PM", EndTime: "bogus", Confidence: 95},
		},
		Assignments: []syllabus.Assignment{
			{Description: "Problem Set #3", Date: "2024-02-20", TimeDue: "", Confidence: 99},
		},
		Lectures: []syllabus.Lecture{
			{Day: 1, StartTime: "2:55 PM", EndTime: "4:10 PM"},
		},
	}
	text := "Instructor: Dr. Ana Ruiz\n#3 (Due 2/20)\n"
	Finalize(d, text, 2024)

	e := d.Exams[0]
	if e.Date != "2024-02-12" || e.TimeDue != "19:30" || e.EndTime != "" {
		t.Errorf("unexpected exam %+v", e)
	}
	if len(d.Assignments) != 1 {
		t.Fatalf("pattern duplicate should be dropped, got %+v", d.Assignments)
	}
	if a := d.Assignments[0]; a.Confidence != 99 || a.TimeDue != syllabus.NotListed {
		t.Errorf("model entry should win, got %+v", a)
	}
	l := d.Lectures[0]
	if l.StartTime != "14:55" || l.EndTime != "16:10" || l.Location != syllabus.NotListed || l.Type != syllabus.TypeLecture {
		t.Errorf("unexpected lecture %+v", l)
	}
	if l.StartDate != syllabus.NotListed {
		t.Errorf("start date = %q", l.StartDate)
	}
	if d.Instructor != "Dr. Ana Ruiz" {
		t.Errorf("instructor should be filled from text, got %q", d.Instructor)
	}
	if d.CourseName != syllabus.NotListed || d.Summary != syllabus.NotListed {
		t.Errorf("missing scalars should be the sentinel, got %q, %q", d.CourseName, d.Summary)
	}
}

func TestFinalize_LecturesFromPatternsWhenModelHasNone(t *testing.T) {
	d := &syllabus.Data{}
	Finalize(d, "Tuesdays & Thursdays, 2:55-4:10 PM, Olin Hall 155", 0)
	if len(d.Lectures) != 2 {
		t.Fatalf("expected 2 lectures, got %+v", d.Lectures)
	}
	if d.Assignments == nil || d.Exams == nil {
		t.Error("lists must be non-nil")
	}
}

func TestFinalize_FinalDedupKeepsDistinctTimes(t *testing.T) {
	d := &syllabus.Data{Assignments: []syllabus.Assignment{
		{Description: "Essay", Date: "2024-03-01", TimeDue: "09:00"},
		{Description: "essay", Date: "2024-03-01", TimeDue: "09:00"},
		{Description: "Essay", Date: "2024-03-01", TimeDue: "17:00"},
	}}
	Finalize(d, "", 2024)
	if len(d.Assignments) != 2 {
		t.Errorf("expected 2 assignments, got %+v", d.Assignments)
	}
}

func TestFinalize_SameDayExamsAtDifferentTimes(t *testing.T) {
	d := MergeChunks([]*syllabus.Data{
		{Exams: []syllabus.Exam{
			{Description: "Lab Practical", Date: "2024-04-02", TimeDue: "09:00"},
			{Description: "Lab Practical", Date: "2024-04-02", TimeDue: "14:00"},
		}},
		{Exams: []syllabus.Exam{{Description: "Lab Practical", Date: "2024-04-02", TimeDue: "16:00"}}},
	})
	Finalize(d, "", 2024)
	if len(d.Exams) != 2 {
		t.Fatalf("expected 2 exams, got %+v", d.Exams)
	}
	if d.Exams[0].TimeDue != "09:00" || d.Exams[1].TimeDue != "14:00" {
		t.Errorf("unexpected exams %+v", d.Exams)
	}
}

func TestFinalize_SumsWeights(t *testing.T) {
	d := &syllabus.Data{Grading: &syllabus.Grading{Categories: []syllabus.GradingCategory{
		{Name: "Exams", Weight: 55.5},
		{Name: "Labs", Weight: 20},
	}, TotalWeight: 100}}
	Finalize(d, "", 0)
	if d.Grading.TotalWeight != 75.5 {
		t.Errorf("total = %v", d.Grading.TotalWeight)
	}
}
