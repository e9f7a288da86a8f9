package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/sylex/internal/syllabus"
)

// SchemaName is the response format name sent with every request.
const SchemaName = "syllabus_extraction"

func strictObject(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func str() map[string]any { return map[string]any{"type": "string"} }
func integer() map[string]any { return map[string]any{"type": "integer"} }

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

// Schema returns the strict JSON schema for one chunk's output. Every
// property is required and no extras are allowed, as strict structured
// output demands. Range limits are enforced by Sanitize instead.
func Schema() map[string]any {
	lecture := strictObject(map[string]any{
		"day":        integer(),
		"start_time": str(),
		"end_time":   str(),
		"start_date": str(),
		"end_date":   str(),
		"location":   str(),
		"type": map[string]any{
			"type": "string",
			"enum": []any{string(syllabus.TypeLecture), string(syllabus.TypeLab), string(syllabus.TypeDiscussion)},
		},
	})
	dated := strictObject(map[string]any{
		"description": str(),
		"date":        str(),
		"time_due":    str(),
		"confidence":  integer(),
	})
	grading := strictObject(map[string]any{
		"categories": arrayOf(strictObject(map[string]any{
			"name":        str(),
			"weight":      map[string]any{"type": "number"},
			"description": str(),
		})),
		"confidence": integer(),
	})
	grading["type"] = []any{"object", "null"}

	return strictObject(map[string]any{
		"course_name": str(),
		"instructor":  str(),
		"summary":     str(),
		"lectures":    arrayOf(lecture),
		"assignments": arrayOf(dated),
		"exams":       arrayOf(dated),
		"grading":     grading,
	})
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func validator() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		raw, err := json.Marshal(Schema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("syllabus.json", bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("syllabus.json")
	})
	return compiledSchema, compileErr
}

// DecodeOutput parses model content into Data. The content is located
// (tolerating code fences and surrounding prose), validated against Schema,
// decoded and sanitized. Any failure wraps syllabus.ErrMalformedOutput.
func DecodeOutput(content string) (*syllabus.Data, error) {
	raw, err := parseStructuredJSON(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syllabus.ErrMalformedOutput, err)
	}

	s, err := validator()
	if err != nil {
		return nil, fmt.Errorf("compile output schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", syllabus.ErrMalformedOutput, err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", syllabus.ErrMalformedOutput, err)
	}

	var data syllabus.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", syllabus.ErrMalformedOutput, err)
	}
	Sanitize(&data)
	return &data, nil
}

// parseStructuredJSON finds the JSON document in model output, trying the
// raw content, then fence-stripped content, then the outermost braces.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONObject(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, fmt.Errorf("no JSON object in output (raw: %s)", truncate(content, 200))
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if last := len(lines) - 1; strings.HasPrefix(strings.TrimSpace(lines[last]), "```") {
		lines = lines[:last]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
