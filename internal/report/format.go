package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// Format selects how WriteSnapshot renders a snapshot.
type Format string

const (
	// FormatTable renders the human-readable table (the default).
	FormatTable Format = "table"
	// FormatJSON renders the snapshot as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders the snapshot as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format flag value, grounded on the teacher's
// formatJSON/formatText/formatCompact dispatch in its analyze command.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json, or yaml)", s)
	}
}

// WriteSnapshot renders snap in the requested machine-readable format.
// FormatTable is not handled here; callers dispatch to WriteTopFunctions
// for that case since it also needs topN.
func WriteSnapshot(w io.Writer, snap snapshot.Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()

		return enc.Encode(snap)
	default:
		return fmt.Errorf("format %q is not machine-readable output", format)
	}
}
