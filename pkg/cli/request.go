package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/haivivi/intone/pkg/exercise"
)

// LoadRequest decodes a YAML or JSON file into v.
func LoadRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest decodes data by the extension of filename. Unknown
// extensions try YAML, then JSON.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			if err := json.Unmarshal(data, v); err != nil {
				return fmt.Errorf("failed to parse %s (tried YAML and JSON)", filename)
			}
		}
	}
	return nil
}

// LoadExercise reads an exercise file. A file without notes or target is
// rejected; a file with only a target gets its notes recovered by the
// scorer later.
func LoadExercise(path string) (*exercise.Spec, error) {
	var ex exercise.Spec
	if err := LoadRequest(path, &ex); err != nil {
		return nil, err
	}
	if len(ex.Notes) == 0 && len(ex.Target) == 0 {
		return nil, fmt.Errorf("%s: exercise has no notes", path)
	}
	if len(ex.Target) == 0 {
		ex.Target = exercise.SampleTarget(ex.Notes)
	}
	if ex.Duration == 0 && len(ex.Notes) > 0 {
		ex.Duration = ex.Notes[len(ex.Notes)-1].End
	}
	return &ex, nil
}

// LoadExerciseConfig reads a generator configuration on top of the
// defaults for g.
func LoadExerciseConfig(path string, g exercise.Gender) (exercise.Config, error) {
	cfg := exercise.DefaultConfig(g)
	if err := LoadRequest(path, &cfg); err != nil {
		return exercise.Config{}, err
	}
	return cfg, cfg.Validate()
}
