package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/sylex/internal/pipeline"
	"github.com/dgallion1/sylex/internal/syllabus"
	"github.com/dgallion1/sylex/internal/term"
)

func sampleResult() pipeline.Result {
	return pipeline.Result{
		Success: true,
		Term:    "Spring 2024",
		Bounds:  term.Bounds{Start: "2024-01-22", End: "2024-05-06"},
		Parsed: &syllabus.Data{
			CourseName: "CHEM 2090",
			Lectures: []syllabus.Lecture{
				{Day: 0, StartTime: "09:05", EndTime: "09:55", StartDate: syllabus.NotListed, EndDate: syllabus.NotListed, Location: "Baker 200", Type: syllabus.TypeLecture},
			},
			Assignments: []syllabus.Assignment{},
			Exams:       []syllabus.Exam{{Description: "Prelim 1", Date: "2024-02-12", TimeDue: "19:30", Confidence: 90}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "yaml", "ics"} {
		if _, err := parseFormat(s); err != nil {
			t.Errorf("parseFormat(%q): %v", s, err)
		}
	}
	if _, err := parseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestWriteResult_Formats(t *testing.T) {
	tests := []struct {
		f    format
		want []string
	}{
		{formatJSON, []string{`"success": true`, `"course_name": "CHEM 2090"`, `"start": "2024-01-22"`}},
		{formatYAML, []string{"success: true", "course_name: CHEM 2090", "location: Baker 200", "term: Spring 2024"}},
		{formatICS, []string{"BEGIN:VCALENDAR", "RRULE:FREQ=WEEKLY;BYDAY=MO", "SUMMARY:Prelim 1"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writeResult(&buf, tt.f, "doc-1", sampleResult()); err != nil {
			t.Fatalf("%s: %v", tt.f, err)
		}
		for _, w := range tt.want {
			if !strings.Contains(buf.String(), w) {
				t.Errorf("%s output missing %q:\n%s", tt.f, w, buf.String())
			}
		}
	}
}

func TestWriteResult_FailedICSFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	res := pipeline.Result{Error: "fetch failed", ErrorKind: syllabus.KindFetchFailed}
	if err := writeResult(&buf, formatICS, "x", res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"error_kind": "fetch_failed"`) {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestToReference(t *testing.T) {
	ref, err := toReference("gs://bucket/a.pdf")
	if err != nil || ref != "gs://bucket/a.pdf" {
		t.Errorf("got %q, %v", ref, err)
	}
	ref, err = toReference("syllabus.pdf")
	if err != nil || !strings.HasPrefix(ref, "file:///") || !strings.HasSuffix(ref, "/syllabus.pdf") {
		t.Errorf("got %q, %v", ref, err)
	}
}
