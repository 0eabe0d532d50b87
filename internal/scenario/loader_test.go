package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseBasic(t *testing.T) {
	data := `
id: SC-TEST-001
name: Basic
cars:
  - name: A
  - name: B
    reversed: true
lines:
  - channel: sanding
    blocked:
      B: [rear]
steps:
  - action: couple
    params:
      joint: 0
`
	sc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if sc.ID != "SC-TEST-001" {
		t.Errorf("ID mismatch: got %s", sc.ID)
	}
	if len(sc.Cars) != 2 || !sc.Cars[1].Reversed {
		t.Errorf("Cars mismatch: %+v", sc.Cars)
	}
	if got := sc.Lines[0].Blocked["B"]; len(got) != 1 || got[0] != "rear" {
		t.Errorf("Blocked mismatch: %v", got)
	}
	if sc.Steps[0].Params["joint"] != 0 {
		t.Errorf("joint param: got %v (%T)", sc.Steps[0].Params["joint"], sc.Steps[0].Params["joint"])
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing id", "name: x\ncars: [{name: A}]\nsteps: [{action: tick}]", "ID is required"},
		{"no cars", "id: X\nsteps: [{action: tick}]", "at least one car"},
		{"no steps", "id: X\ncars: [{name: A}]", "at least one step"},
		{"duplicate car", "id: X\ncars: [{name: A}, {name: A}]\nsteps: [{action: tick}]", "duplicate car"},
		{"unknown channel", "id: X\ncars: [{name: A}]\nlines: [{channel: wipers}]\nsteps: [{action: tick}]", "unknown channel"},
		{"unknown side", "id: X\ncars: [{name: A}]\nlines: [{channel: sanding, blocked: {A: [left]}}]\nsteps: [{action: tick}]", "unknown side"},
		{"blocked unknown car", "id: X\ncars: [{name: A}]\nlines: [{channel: sanding, blocked: {Z: [front]}}]\nsteps: [{action: tick}]", "unknown car"},
		{"switch unknown car", "id: X\ncars: [{name: A}]\nswitches: [{car: Z, sensor: 1}]\nsteps: [{action: tick}]", "unknown car"},
		{"unknown action", "id: X\ncars: [{name: A}]\nsteps: [{action: fly}]", "unknown action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("id: [unclosed\n"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if le.Cause == nil {
		t.Error("expected underlying YAML error")
	}
}

func TestLoadSetsFile(t *testing.T) {
	path := filepath.Join("testdata", "three_car_or.yaml")
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sc.File != path {
		t.Errorf("File = %q, want %q", sc.File, path)
	}
}

func TestLoadErrorCarriesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("name: no id\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if le.File != path {
		t.Errorf("File = %q, want %q", le.File, path)
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadDirectory(t *testing.T) {
	scenarios, err := LoadDirectory("testdata")
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if len(scenarios) != 3 {
		t.Fatalf("got %d scenarios, want 3", len(scenarios))
	}

	single, err := LoadPath(filepath.Join("testdata", "switch_arbitration.yaml"))
	if err != nil {
		t.Fatalf("LoadPath failed: %v", err)
	}
	if len(single) != 1 || single[0].ID != "SC-ARB-001" {
		t.Errorf("LoadPath returned %v", single)
	}
}

func TestLoadErrorString(t *testing.T) {
	err := &LoadError{File: "a.yaml", Line: 12, Message: "bad"}
	if err.Error() != "a.yaml:12: bad" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCatalogueIsComplete(t *testing.T) {
	names := Channels()
	if len(names) != 17 {
		t.Errorf("got %d channels, want 17", len(names))
	}
	for _, want := range []string{"sanding", "indicator", "door_control", "doors_open", "throttle"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("channel %q missing", want)
		}
	}
}
