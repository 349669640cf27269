package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a state lifecycle scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Run is the path of the CUE run configuration the steps default to.
	Run string `yaml:"run"`

	// Store selects the snapshot container: "memory" (default) or "sqlite".
	Store string `yaml:"store,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one lifecycle action.
type Step struct {
	// Action is one of fresh, save, load, release.
	Action string `yaml:"action"`

	// Run overrides the scenario run configuration (fresh, load).
	Run string `yaml:"run,omitempty"`

	// Codec selects the dataset codec of a save to sqlite.
	Codec string `yaml:"codec,omitempty"`

	// Unconfigured loads into a state without configuration, adopting the
	// snapshot's groups and target.
	Unconfigured bool `yaml:"unconfigured,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Migration is the expected target change of a load.
	Migration string `yaml:"migration,omitempty"`

	// Error is the expected error code; the step must fail with it.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Labels are the expected target labels (target).
	Labels []string `yaml:"labels,omitempty"`

	// Bond selects the bond (sectors).
	Bond int `yaml:"bond,omitempty"`

	// Irreps are the expected formatted sector labels (sectors).
	Irreps []string `yaml:"irreps,omitempty"`

	// Dims are the expected sector dimensions (sectors, optional).
	Dims []int `yaml:"dims,omitempty"`

	// Site selects the site tensor (blocks, norm).
	Site int `yaml:"site,omitempty"`

	// Count is the expected number of blocks (blocks).
	Count int `yaml:"count,omitempty"`

	// Value is the expected norm (norm).
	Value float64 `yaml:"value,omitempty"`
}

// Step actions.
const (
	ActionFresh   = "fresh"
	ActionSave    = "save"
	ActionLoad    = "load"
	ActionRelease = "release"
)

// Assertion type constants.
const (
	AssertTarget       = "target"
	AssertSectors      = "sectors"
	AssertBlocks       = "blocks"
	AssertNorm         = "norm"
	AssertIntegrity    = "integrity"
	AssertDigestStable = "digest_stable"
)

// LoadScenario reads and parses a scenario YAML file. Run paths are
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Run = resolve(base, scenario.Run)
	for i := range scenario.Steps {
		scenario.Steps[i].Run = resolve(base, scenario.Steps[i].Run)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Run == "" {
		return fmt.Errorf("run is required")
	}
	if _, err := os.Stat(s.Run); os.IsNotExist(err) {
		return fmt.Errorf("run configuration not found: %s", s.Run)
	}
	switch s.Store {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store %q", s.Store)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Action {
		case ActionFresh, ActionRelease:
		case ActionSave:
			if step.Codec != "" && s.Store != "sqlite" {
				return fmt.Errorf("steps[%d]: codec needs the sqlite store", i)
			}
		case ActionLoad:
			if step.Unconfigured && step.Run != "" {
				return fmt.Errorf("steps[%d]: run and unconfigured are exclusive", i)
			}
		case "":
			return fmt.Errorf("steps[%d]: action is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
		if step.Run != "" {
			if _, err := os.Stat(step.Run); os.IsNotExist(err) {
				return fmt.Errorf("steps[%d]: run configuration not found: %s", i, step.Run)
			}
		}
		if e := step.Expect; e != nil {
			if e.Migration != "" && e.Error != "" {
				return fmt.Errorf("steps[%d].expect: migration and error are exclusive", i)
			}
			if e.Migration != "" && step.Action != ActionLoad {
				return fmt.Errorf("steps[%d].expect: migration only applies to load", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTarget:
		if len(a.Labels) == 0 {
			return fmt.Errorf("assertions[%d]: labels are required for target", index)
		}
	case AssertSectors:
		if a.Irreps == nil {
			return fmt.Errorf("assertions[%d]: irreps are required for sectors", index)
		}
		if a.Dims != nil && len(a.Dims) != len(a.Irreps) {
			return fmt.Errorf("assertions[%d]: %d dims for %d irreps", index, len(a.Dims), len(a.Irreps))
		}
	case AssertBlocks:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for blocks", index)
		}
	case AssertNorm, AssertIntegrity, AssertDigestStable:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
