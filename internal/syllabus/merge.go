package syllabus

import (
	"strconv"
	"strings"
)

// KeyFunc returns the identifying fields of an entry. Fields are compared
// case-insensitively after trimming.
type KeyFunc[T any] func(T) []string

// Dedupe drops every item whose key was already seen. The first occurrence
// wins and input order is preserved.
func Dedupe[T any](items []T, key KeyFunc[T]) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := joinKey(key(it))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Merge appends the items of secondary whose key is not present in primary.
// Primary is kept as given and always wins on conflict; repeats within the
// appended items are skipped.
func Merge[T any](primary, secondary []T, key KeyFunc[T]) []T {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	out := make([]T, 0, len(primary)+len(secondary))
	for _, it := range primary {
		seen[joinKey(key(it))] = struct{}{}
		out = append(out, it)
	}
	for _, it := range secondary {
		k := joinKey(key(it))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func joinKey(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return strings.Join(parts, "\x1f")
}

// LectureKey identifies a meeting by day and time span.
func LectureKey(l Lecture) []string {
	return []string{strconv.Itoa(l.Day), l.StartTime, l.EndTime}
}

// AssignmentKey is used when merging sources.
func AssignmentKey(a Assignment) []string {
	return []string{a.Description, a.Date}
}

// AssignmentFinalKey is used for the last dedup pass.
func AssignmentFinalKey(a Assignment) []string {
	return []string{a.Description, a.Date, a.TimeDue}
}

func ExamKey(e Exam) []string {
	return []string{e.Description, e.Date}
}

func ExamFinalKey(e Exam) []string {
	return []string{e.Description, e.Date, e.TimeDue}
}
