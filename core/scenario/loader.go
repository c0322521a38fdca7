package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a scenario from a JSON or YAML file. Omitted factors default
// to 1.
func Load(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Decode(f, ext)
}

// Decode reads a scenario in the given format ("yaml", "yml" or "json").
func Decode(r io.Reader, format string) (Scenario, error) {
	s := Scenario{Name: Custom, ProductionFactor: 1, ConsumptionFactor: 1}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return Scenario{}, fmt.Errorf("decode scenario: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return Scenario{}, fmt.Errorf("decode scenario: %w", err)
		}
	default:
		return Scenario{}, fmt.Errorf("unsupported scenario format: %s", format)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Resolve returns the preset named ref, or loads ref as a file when it has a
// file extension.
func Resolve(ref string) (Scenario, error) {
	if ref == "" {
		return Preset(Default)
	}
	if filepath.Ext(ref) != "" {
		return Load(ref)
	}
	return Preset(ref)
}
