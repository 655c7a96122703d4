// Package config loads scenario files and process settings.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/hive/model"
)

//go:embed scenarios/default.yaml
var defaultScenario []byte

// Scenario is a complete arena setup: the floor plan, the actors in it and
// an optional scripted damage timeline.
type Scenario struct {
	Name     string        `yaml:"name"`
	Duration float64       `yaml:"duration"` // seconds, 0 runs until stopped
	Arena    ArenaConfig   `yaml:"arena"`
	Actors   []ActorConfig `yaml:"actors"`
	Damage   []DamageEvent `yaml:"damage,omitempty"`
}

// ArenaConfig describes the floor plan. Rows are read top to bottom as
// increasing Y; '.' is floor, '#' is wall and '=' is glass.
type ArenaConfig struct {
	CellSize    float64                   `yaml:"cell_size"`
	Rows        []string                  `yaml:"rows"`
	Gravity     float64                   `yaml:"gravity"`
	DamageScale float64                   `yaml:"damage_scale"`
	Sequences   map[string]SequenceConfig `yaml:"sequences,omitempty"`
	Volleys     map[string]VolleyConfig   `yaml:"volleys,omitempty"`
}

type SequenceConfig struct {
	Duration float64            `yaml:"duration"`
	Speed    float64            `yaml:"speed"`
	Markers  map[string]float64 `yaml:"markers,omitempty"` // event name to offset
}

type VolleyConfig struct {
	Speed    float64 `yaml:"speed"`
	Damage   float64 `yaml:"damage"`
	Splash   float64 `yaml:"splash"`
	Types    string  `yaml:"types"`
	Lifetime float64 `yaml:"lifetime"`
}

// ActorConfig spawns one entity. Only actors with behaviors get a host.
type ActorConfig struct {
	Name      string           `yaml:"name"`
	Class     string           `yaml:"class"`
	Team      string           `yaml:"team"`
	Pos       model.Vec3       `yaml:"pos"`
	Yaw       float64          `yaml:"yaw"`
	Radius    float64          `yaml:"radius"`
	Height    float64          `yaml:"height"`
	Mass      float64          `yaml:"mass"`
	Health    float64          `yaml:"health"`
	Static    bool             `yaml:"static"`
	Missing   []string         `yaml:"missing_sequences,omitempty"`
	Params    map[string]int   `yaml:"params,omitempty"`
	Behaviors []BehaviorConfig `yaml:"behaviors,omitempty"`
}

// BehaviorConfig attaches a behavior in priority order. When is an optional
// guard expression evaluated before the behavior may be selected.
type BehaviorConfig struct {
	Kind   string             `yaml:"kind"`
	Name   string             `yaml:"name,omitempty"`
	When   string             `yaml:"when,omitempty"`
	Volley string             `yaml:"volley,omitempty"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// DamageEvent is a scripted blow applied At seconds into the run.
type DamageEvent struct {
	At       float64 `yaml:"at"`
	Target   string  `yaml:"target"`
	Attacker string  `yaml:"attacker,omitempty"`
	Amount   float64 `yaml:"amount"`
	Types    string  `yaml:"types"`
	Stumble  bool    `yaml:"stumble,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in demo scenario.
func Default() *Scenario {
	s, err := Parse(defaultScenario)
	if err != nil {
		panic(fmt.Sprintf("default scenario: %v", err))
	}
	return s
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return &s, nil
}

// Validate checks references and enumerations. Behavior kinds and parameter
// keys are checked when the simulation is built.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Arena.CellSize < 0 {
		errs = append(errs, errors.New("arena cell_size must not be negative"))
	}
	for i, row := range s.Arena.Rows {
		for j, r := range row {
			if _, ok := terrainRunes[r]; !ok {
				errs = append(errs, fmt.Errorf("arena row %d col %d: unknown terrain %q", i, j, r))
			}
		}
	}
	for name, v := range s.Arena.Volleys {
		if _, err := model.ParseDamageType(v.Types); err != nil {
			errs = append(errs, fmt.Errorf("volley %s: %w", name, err))
		}
	}

	names := make(map[string]bool, len(s.Actors))
	for i, a := range s.Actors {
		label := a.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		} else if names[a.Name] {
			errs = append(errs, fmt.Errorf("actor %s: duplicate name", a.Name))
		}
		names[a.Name] = true
		if _, ok := model.ParseClass(a.Class); !ok {
			errs = append(errs, fmt.Errorf("actor %s: unknown class %q", label, a.Class))
		}
		for j, b := range a.Behaviors {
			if strings.TrimSpace(b.Kind) == "" {
				errs = append(errs, fmt.Errorf("actor %s: behavior %d has no kind", label, j))
			}
		}
	}

	for i, d := range s.Damage {
		if !names[d.Target] {
			errs = append(errs, fmt.Errorf("damage %d: unknown target %q", i, d.Target))
		}
		if d.Attacker != "" && !names[d.Attacker] {
			errs = append(errs, fmt.Errorf("damage %d: unknown attacker %q", i, d.Attacker))
		}
		if _, err := model.ParseDamageType(d.Types); err != nil {
			errs = append(errs, fmt.Errorf("damage %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

var terrainRunes = map[rune]model.TerrainType{
	'.': model.Floor,
	' ': model.Floor,
	'#': model.Wall,
	'=': model.Glass,
}

// Grid builds the terrain grid. A scenario without rows gets nil, an
// endless open floor.
func (a ArenaConfig) Grid() *model.TerrainGrid {
	if len(a.Rows) == 0 {
		return nil
	}
	size := a.CellSize
	if size <= 0 {
		size = 64
	}
	cols := 0
	for _, r := range a.Rows {
		if n := len([]rune(r)); n > cols {
			cols = n
		}
	}
	g := model.OpenGrid(cols, len(a.Rows), size)
	for row, line := range a.Rows {
		for col, r := range []rune(line) {
			g.Set(col, row, terrainRunes[r])
		}
	}
	return g
}
