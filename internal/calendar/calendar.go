// Package calendar renders extracted syllabus data as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/dgallion1/sylex/internal/syllabus"
)

const productID = "-//sylex//syllabus export//EN"

var byDay = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// Options anchor the export in time.
type Options struct {
	ID        string         // seeds stable event UIDs
	TermStart string         // ISO date; first possible lecture
	TermEnd   string         // ISO date; last possible lecture
	Location  *time.Location // zone for wall-clock times; UTC when nil
	Now       time.Time      // DTSTAMP; time.Now when zero
}

// Export builds a VCALENDAR. Lectures become weekly recurring events
// anchored on the first matching weekday on or after their start date
// (falling back to the term start); lectures with no usable start are
// skipped. Assignments and exams with an ISO date become timed events when
// a time is known and all-day events otherwise. It returns the feed and the
// number of events written.
func Export(d *syllabus.Data, opts Options) (string, int) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if d != nil && d.CourseName != "" && d.CourseName != syllabus.NotListed {
		cal.SetXWRCalName(d.CourseName)
	}
	if d == nil {
		return cal.Serialize(), 0
	}

	n := 0
	newEvent := func(kind string, key ...string) *ics.VEvent {
		uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte(opts.ID+"|"+kind+"|"+strings.Join(key, "|")))
		ev := cal.AddEvent(uid.String() + "@sylex")
		ev.SetDtStampTime(now)
		n++
		return ev
	}

	for _, l := range d.Lectures {
		first, ok := firstMeeting(l, opts.TermStart, loc)
		if !ok {
			continue
		}
		start, okS := at(first, l.StartTime, loc)
		end, okE := at(first, l.EndTime, loc)
		if !okS || !okE {
			continue
		}
		ev := newEvent("lecture", fmt.Sprint(l.Day), l.StartTime, l.EndTime)
		ev.SetSummary(lectureSummary(d.CourseName, l.Type))
		if l.Location != "" && l.Location != syllabus.NotListed {
			ev.SetLocation(l.Location)
		}
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetProperty(ics.ComponentPropertyRrule, weeklyRule(l, opts.TermEnd, loc))
	}

	for _, a := range d.Assignments {
		day, ok := isoDate(a.Date, loc)
		if !ok {
			continue
		}
		ev := newEvent("assignment", a.Description, a.Date)
		ev.SetSummary(a.Description)
		ev.SetDescription(fmt.Sprintf("Confidence: %d", a.Confidence))
		setWhen(ev, day, a.TimeDue, "", loc)
	}

	for _, e := range d.Exams {
		day, ok := isoDate(e.Date, loc)
		if !ok {
			continue
		}
		ev := newEvent("exam", e.Description, e.Date)
		ev.SetSummary(e.Description)
		ev.SetDescription(fmt.Sprintf("Confidence: %d", e.Confidence))
		setWhen(ev, day, e.TimeDue, e.EndTime, loc)
	}

	return cal.Serialize(), n
}

func lectureSummary(course string, typ syllabus.LectureType) string {
	label := string(typ)
	if label == "" {
		label = string(syllabus.TypeLecture)
	}
	label = strings.ToUpper(label[:1]) + label[1:]
	if course == "" || course == syllabus.NotListed {
		return label
	}
	return course + " " + label
}

// setWhen makes ev timed when due parses as HH:MM, else all-day. An end
// time before the start is ignored.
func setWhen(ev *ics.VEvent, day time.Time, due, endTime string, loc *time.Location) {
	start, ok := at(day, due, loc)
	if !ok {
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		return
	}
	end := start
	if e, ok := at(day, endTime, loc); ok && e.After(start) {
		end = e
	}
	ev.SetStartAt(start)
	ev.SetEndAt(end)
}

func weeklyRule(l syllabus.Lecture, termEnd string, loc *time.Location) string {
	rule := "FREQ=WEEKLY;BYDAY=" + byDay[l.Day]
	until := l.EndDate
	if _, ok := isoDate(until, loc); !ok {
		until = termEnd
	}
	if last, ok := isoDate(until, loc); ok {
		endOfDay := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, loc)
		rule += ";UNTIL=" + endOfDay.UTC().Format("20060102T150405Z")
	}
	return rule
}

// firstMeeting is the first date on or after the lecture's start (or the
// term start) that falls on the lecture's weekday.
func firstMeeting(l syllabus.Lecture, termStart string, loc *time.Location) (time.Time, bool) {
	if l.Day < 0 || l.Day > 6 {
		return time.Time{}, false
	}
	from, ok := isoDate(l.StartDate, loc)
	if !ok {
		from, ok = isoDate(termStart, loc)
	}
	if !ok {
		return time.Time{}, false
	}
	// time.Weekday counts from Sunday; lecture days count from Monday.
	want := time.Weekday((l.Day + 1) % 7)
	offset := (int(want) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset), true
}

func isoDate(s string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	return t, err == nil
}

func at(day time.Time, hhmm string, loc *time.Location) (time.Time, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}
