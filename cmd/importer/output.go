package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type renderer func(v any) error

func newRenderer(format string, w io.Writer) (renderer, error) {
	switch format {
	case "json", "":
		return func(v any) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}, nil
	case "yaml":
		return func(v any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(v)
		}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q, want json or yaml", format)
	}
}
