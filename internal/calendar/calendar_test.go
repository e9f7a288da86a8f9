package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/sylex/internal/syllabus"
)

var stamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleData() *syllabus.Data {
	return &syllabus.Data{
		CourseName: "CHEM 2090",
		Lectures: []syllabus.Lecture{
			{Day: 1, StartTime: "10:10", EndTime: "11:25", StartDate: syllabus.NotListed, EndDate: syllabus.NotListed, Location: "Baker 200", Type: syllabus.TypeLecture},
		},
		Assignments: []syllabus.Assignment{
			{Description: "Problem Set #1", Date: "2024-02-06", TimeDue: syllabus.NotListed, Confidence: 90},
			{Description: "Reading Response", Date: syllabus.NotListed, TimeDue: syllabus.NotListed, Confidence: 60},
		},
		Exams: []syllabus.Exam{
			{Description: "Prelim 1", Date: "2024-02-12", TimeDue: "19:30", EndTime: "21:00", Confidence: 95},
		},
	}
}

func TestExport_Events(t *testing.T) {
	out, n := Export(sampleData(), Options{ID: "doc-1", TermStart: "2024-01-22", TermEnd: "2024-05-06", Now: stamp})
	if n != 3 {
		t.Fatalf("expected 3 events, got %d:\n%s", n, out)
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"X-WR-CALNAME:CHEM 2090",
		"DTSTART:20240123T101000Z",
		"DTEND:20240123T112500Z",
		"RRULE:FREQ=WEEKLY;BYDAY=TU;UNTIL=20240506T235959Z",
		"LOCATION:Baker 200",
		"DTSTART;VALUE=DATE:20240206",
		"DTSTART:20240212T193000Z",
		"DTEND:20240212T210000Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}
	if strings.Contains(out, "Reading Response") {
		t.Error("undated assignment should be skipped")
	}
}

func TestExport_StableUIDs(t *testing.T) {
	a, _ := Export(sampleData(), Options{ID: "doc-1", TermStart: "2024-01-22", Now: stamp})
	b, _ := Export(sampleData(), Options{ID: "doc-1", TermStart: "2024-01-22", Now: stamp})
	if a != b {
		t.Error("expected identical feeds for identical input")
	}
	c, _ := Export(sampleData(), Options{ID: "doc-2", TermStart: "2024-01-22", Now: stamp})
	if a == c {
		t.Error("expected different UIDs for a different document")
	}
}

func TestExport_LectureWithoutAnchorSkipped(t *testing.T) {
	d := sampleData()
	d.Assignments = nil
	d.Exams = nil
	out, n := Export(d, Options{Now: stamp})
	if n != 0 {
		t.Fatalf("expected no events without a term start, got %d:\n%s", n, out)
	}
}

func TestExport_OpenEndedRule(t *testing.T) {
	d := &syllabus.Data{Lectures: []syllabus.Lecture{
		{Day: 4, StartTime: "09:05", EndTime: "09:55", StartDate: "2024-08-26", EndDate: syllabus.NotListed},
	}}
	out, n := Export(d, Options{Now: stamp})
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
	if !strings.Contains(out, "RRULE:FREQ=WEEKLY;BYDAY=FR\r\n") {
		t.Errorf("expected open-ended weekly rule:\n%s", out)
	}
	if !strings.Contains(out, "DTSTART:20240830T090500Z") {
		t.Errorf("expected first Friday after start:\n%s", out)
	}
}

func TestFirstMeeting(t *testing.T) {
	// 2024-01-22 is a Monday.
	tests := []struct {
		day  int
		want string
	}{
		{0, "2024-01-22"},
		{1, "2024-01-23"},
		{4, "2024-01-26"},
		{6, "2024-01-28"},
	}
	for _, tt := range tests {
		got, ok := firstMeeting(syllabus.Lecture{Day: tt.day}, "2024-01-22", time.UTC)
		if !ok || got.Format("2006-01-02") != tt.want {
			t.Errorf("firstMeeting(day %d) = %v, %v; want %s", tt.day, got, ok, tt.want)
		}
	}
}
