package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/sylex/internal/calendar"
	"github.com/dgallion1/sylex/internal/pipeline"
)

type format string

const (
	formatJSON format = "json"
	formatYAML format = "yaml"
	formatICS  format = "ics"
)

func parseFormat(s string) (format, error) {
	switch f := format(s); f {
	case formatJSON, formatYAML, formatICS:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// writeResult renders one result. The ics format needs parsed data, so a
// failed result is written as JSON instead.
func writeResult(w io.Writer, f format, id string, res pipeline.Result) error {
	if f == formatICS && res.Success {
		feed, _ := calendar.Export(res.Parsed, calendar.Options{
			ID:        id,
			TermStart: res.Bounds.Start,
			TermEnd:   res.Bounds.End,
		})
		_, err := io.WriteString(w, feed)
		return err
	}
	if f == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(res)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
