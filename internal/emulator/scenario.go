package emulator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Duration is a time.Duration written as "16ms", "1s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Scenario is a scripted host session: the initial host state and the
// events to play once the plugin is loaded.
type Scenario struct {
	Name     string             `yaml:"name"`
	Table    TableSetup         `yaml:"table"`
	View     *ViewSetup         `yaml:"view,omitempty"`
	Settings []SettingValue     `yaml:"settings,omitempty"`
	Options  map[string]float32 `yaml:"options,omitempty"`
	Steps    []Step             `yaml:"steps"`
}

// TableSetup is the table the host pretends to have loaded.
type TableSetup struct {
	Path   string  `yaml:"path"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// ViewSetup is the active view: a mode plus up to 19 values in VPX order.
type ViewSetup struct {
	Mode   int32     `yaml:"mode"`
	Values []float32 `yaml:"values,omitempty"`
}

// SettingValue is one host setting.
type SettingValue struct {
	Namespace string `yaml:"namespace"`
	Name      string `yaml:"name"`
	Value     string `yaml:"value"`
}

// OptionValue is a user change of a plugin option during the run.
type OptionValue struct {
	Key   string  `yaml:"key"`
	Value float32 `yaml:"value"`
}

// Step is one scenario action. Exactly one of Broadcast, Advance and
// SetOption is set; Repeat and Every apply to Broadcast.
type Step struct {
	// Broadcast is "Namespace/Name".
	Broadcast string       `yaml:"broadcast,omitempty"`
	Repeat    int          `yaml:"repeat,omitempty"`
	Every     Duration     `yaml:"every,omitempty"`
	Advance   Duration     `yaml:"advance,omitempty"`
	SetOption *OptionValue `yaml:"set_option,omitempty"`
}

// Message splits Broadcast into namespace and name.
func (s Step) Message() (namespace, name string, err error) {
	namespace, name, ok := strings.Cut(s.Broadcast, "/")
	if !ok || namespace == "" || name == "" {
		return "", "", fmt.Errorf("broadcast %q: want Namespace/Name", s.Broadcast)
	}
	return namespace, name, nil
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario for inconsistent steps.
func (s *Scenario) Validate() error {
	if s.View != nil && len(s.View.Values) > 19 {
		return fmt.Errorf("view: %d values, at most 19", len(s.View.Values))
	}
	for _, set := range s.Settings {
		if set.Namespace == "" || set.Name == "" {
			return fmt.Errorf("setting %q/%q: namespace and name are required", set.Namespace, set.Name)
		}
	}

	for i, step := range s.Steps {
		actions := 0
		if step.Broadcast != "" {
			actions++
			if _, _, err := step.Message(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if step.Advance > 0 {
			actions++
		}
		if step.SetOption != nil {
			actions++
			if step.SetOption.Key == "" {
				return fmt.Errorf("step %d: set_option needs a key", i+1)
			}
		}
		if actions != 1 {
			return fmt.Errorf("step %d: exactly one of broadcast, advance, set_option required", i+1)
		}
		if step.Repeat < 0 || step.Every < 0 {
			return fmt.Errorf("step %d: repeat and every must not be negative", i+1)
		}
		if step.Broadcast == "" && (step.Repeat != 0 || step.Every != 0) {
			return fmt.Errorf("step %d: repeat and every only apply to broadcast", i+1)
		}
	}
	return nil
}

// tableInfo converts the table setup.
func (t TableSetup) tableInfo() protocol.TableInfo {
	return protocol.TableInfo{Path: t.Path, Width: t.Width, Height: t.Height}
}

// viewSetup converts the view setup.
func (v ViewSetup) viewSetup() protocol.ViewSetup {
	var f [19]float32
	copy(f[:], v.Values)
	return protocol.ViewSetupFromFloats(v.Mode, f)
}
