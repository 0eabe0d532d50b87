package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse parses a scenario from YAML bytes and validates it.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		le := &LoadError{Message: "failed to parse YAML", Cause: err}
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			le.Line = yamlErrorLine(err)
		}
		return nil, le
	}
	if err := Validate(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario's structure.
func Validate(sc *Scenario) error {
	if sc.ID == "" {
		return &LoadError{Message: "scenario ID is required"}
	}
	if len(sc.Cars) == 0 {
		return &LoadError{Message: "scenario must have at least one car"}
	}
	if len(sc.Steps) == 0 {
		return &LoadError{Message: "scenario must have at least one step"}
	}

	cars := make(map[string]bool, len(sc.Cars))
	for _, c := range sc.Cars {
		if c.Name == "" {
			return &LoadError{Message: "car name is required"}
		}
		if cars[c.Name] {
			return &LoadError{Message: fmt.Sprintf("duplicate car %q", c.Name)}
		}
		cars[c.Name] = true
	}

	for _, l := range sc.Lines {
		if _, ok := catalogue[l.Channel]; !ok {
			return &LoadError{Message: fmt.Sprintf("unknown channel %q", l.Channel)}
		}
		for car, sides := range l.Blocked {
			if !cars[car] {
				return &LoadError{Message: fmt.Sprintf("channel %s: unknown car %q", l.Channel, car)}
			}
			for _, s := range sides {
				if _, err := parseSide(s); err != nil {
					return &LoadError{Message: fmt.Sprintf("channel %s", l.Channel), Cause: err}
				}
			}
		}
	}

	for _, s := range sc.Switches {
		if !cars[s.Car] {
			return &LoadError{Message: fmt.Sprintf("switch: unknown car %q", s.Car)}
		}
	}

	for i, st := range sc.Steps {
		if _, ok := actions[st.Action]; !ok {
			return &LoadError{Message: fmt.Sprintf("step %d: unknown action %q", i+1, st.Action)}
		}
	}
	return nil
}

// Load loads a scenario from a file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	sc, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	sc.File = path
	return sc, nil
}

// LoadDirectory loads all scenarios from dir and its subdirectories.
// Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*Scenario, error) {
	var scenarios []*Scenario

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		sc, err := Load(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scenarios, nil
}

// LoadPath loads a single file or every scenario under a directory.
func LoadPath(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to stat", Cause: err}
	}
	if info.IsDir() {
		return LoadDirectory(path)
	}
	sc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return []*Scenario{sc}, nil
}

// yamlErrorLine extracts "line N" from a yaml syntax error message.
func yamlErrorLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(strings.TrimPrefix(err.Error(), "yaml: "), "line %d:", &line); scanErr != nil {
		return 0
	}
	return line
}
