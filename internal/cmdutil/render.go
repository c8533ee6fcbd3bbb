// Package cmdutil provides the shared output rendering used by the CLI
// commands.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by the --format flags.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render writes v to w in the requested structured format. Text output is
// command-specific and handled by the commands themselves.
func Render(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, v)
	case FormatYAML:
		return RenderYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// RenderYAML writes v as YAML. The value is passed through its JSON form
// first so both structured formats expose identical field names.
func RenderYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	return enc.Close()
}

// Table writes header and rows as tab-aligned columns.
func Table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
