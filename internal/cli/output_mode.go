package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type outputMode int

const (
	outputModeText outputMode = iota
	outputModeJSON
	outputModeYAML
)

func parseOutputMode(s string) (outputMode, error) {
	switch s {
	case "", "text":
		return outputModeText, nil
	case "json":
		return outputModeJSON, nil
	case "yaml", "yml":
		return outputModeYAML, nil
	default:
		return outputModeText, usageErrorf("invalid output format %q: use text, json or yaml", s)
	}
}

func (m outputMode) isText() bool {
	return m == outputModeText
}

// writeStructured renders v as JSON or YAML.
func writeStructured(w io.Writer, mode outputMode, v any) error {
	switch mode {
	case outputModeJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("writing json output: %w", err)
		}
	case outputModeYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("writing yaml output: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("writing yaml output: %w", err)
		}
	default:
		return fmt.Errorf("output mode %d is not structured", mode)
	}
	return nil
}
