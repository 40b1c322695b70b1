package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/tonal"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRequest(t *testing.T) {
	type req struct {
		Name string `json:"name" yaml:"name"`
	}
	tests := []struct {
		file    string
		data    string
		want    string
		wantErr bool
	}{
		{"a.yaml", "name: y", "y", false},
		{"a.yml", "name: y", "y", false},
		{"a.json", `{"name":"j"}`, "j", false},
		{"a.txt", `{"name":"j"}`, "j", false},
		{"a.json", "name: y", "", true},
		{"a.yaml", "name: [", "", true},
	}
	for _, tt := range tests {
		var r req
		err := ParseRequest([]byte(tt.data), tt.file, &r)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRequest(%s, %q) error = %v, wantErr %v", tt.file, tt.data, err, tt.wantErr)
			continue
		}
		if r.Name != tt.want {
			t.Errorf("ParseRequest(%s) name = %q, want %q", tt.file, r.Name, tt.want)
		}
	}
}

func TestLoadExercise(t *testing.T) {
	path := writeFile(t, "ex.yaml", `
id: hand-written
tonic_hz: 220
mode: relative
notes:
  - {index: 0, start: 0, end: 1, semi: 0, hz: 220, label: "1"}
  - {index: 1, start: 1, end: 2.5, semi: 4, hz: 277.18, label: "3"}
`)
	ex, err := LoadExercise(path)
	if err != nil {
		t.Fatalf("LoadExercise: %v", err)
	}
	if ex.ID != "hand-written" || ex.Mode != tonal.Relative || len(ex.Notes) != 2 {
		t.Errorf("exercise = %+v", ex)
	}
	if ex.Duration != 2.5 {
		t.Errorf("Duration = %v, want 2.5", ex.Duration)
	}
	if len(ex.Target) == 0 || ex.Target[len(ex.Target)-1].T != 2.5 {
		t.Errorf("target not sampled from notes: %d points", len(ex.Target))
	}

	if _, err := LoadExercise(writeFile(t, "empty.yaml", "id: x\n")); err == nil {
		t.Error("exercise without notes should be rejected")
	}
}

func TestLoadExerciseConfig(t *testing.T) {
	cfg, err := LoadExerciseConfig(writeFile(t, "cfg.yaml", "difficulty: L3\nkey_semitone: -2\n"), exercise.Female)
	if err != nil {
		t.Fatalf("LoadExerciseConfig: %v", err)
	}
	def := exercise.DefaultConfig(exercise.Female)
	if cfg.Difficulty != exercise.L3 || cfg.KeySemitone != -2 || cfg.MinHz != def.MinHz {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := LoadExerciseConfig(writeFile(t, "bad.yaml", "mode: sideways\n"), exercise.Male); err == nil {
		t.Error("invalid mode should be rejected")
	}
}
