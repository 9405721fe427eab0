package config

import (
	"fmt"
	"os"

	"github.com/cuemby/raftsim/pkg/fault"
	"gopkg.in/yaml.v3"
)

// Config holds every knob exposed for one simulation run: cluster size,
// timing, fault rates, and chaos scenario selection.
type Config struct {
	Nodes        int     `yaml:"nodes"`
	MaxTime      float64 `yaml:"max_time"`
	Seed         int64   `yaml:"seed"`

	MessageDropRate    float64 `yaml:"message_drop_rate"`
	MessageDelayMin    float64 `yaml:"message_delay_min"`
	MessageDelayMax    float64 `yaml:"message_delay_max"`
	DuplicateRate      float64 `yaml:"duplicate_rate"`

	ElectionTimeoutMin float64 `yaml:"election_timeout_min"`
	ElectionTimeoutMax float64 `yaml:"election_timeout_max"`
	HeartbeatInterval  float64 `yaml:"heartbeat_interval"`

	Chaos         bool   `yaml:"chaos"`
	ChaosScenario string `yaml:"chaos_scenario"`
}

// DefaultConfig returns the parameter set used when a field is absent
// from the loaded document, mirroring the reference manager's
// DefaultConfig pattern. Defaults satisfy Validate on their own and
// describe a lossless network with message delays of 0.01 to 0.05.
func DefaultConfig() Config {
	return Config{
		Nodes:              5,
		MaxTime:            100,
		Seed:               1,
		MessageDropRate:    0,
		MessageDelayMin:    0.01,
		MessageDelayMax:    0.05,
		DuplicateRate:      0,
		ElectionTimeoutMin: 1.0,
		ElectionTimeoutMax: 2.0,
		HeartbeatInterval:  0.25,
		Chaos:              false,
		ChaosScenario:      "",
	}
}

// Load reads and parses a YAML document at path over top of
// DefaultConfig, then validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants a Config must satisfy before it may be
// used to build a Simulator. Every failure is a configuration error,
// never a panic.
func (c Config) Validate() error {
	if c.Nodes < 3 {
		return fmt.Errorf("config: nodes must be >= 3, got %d", c.Nodes)
	}
	if c.MaxTime <= 0 {
		return fmt.Errorf("config: max_time must be > 0, got %f", c.MaxTime)
	}
	if c.MessageDropRate < 0 || c.MessageDropRate > 1 {
		return fmt.Errorf("config: message_drop_rate must be in [0,1], got %f", c.MessageDropRate)
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("config: duplicate_rate must be in [0,1], got %f", c.DuplicateRate)
	}
	if c.MessageDelayMin < 0 || c.MessageDelayMax < 0 {
		return fmt.Errorf("config: message delay bounds must be >= 0, got min=%f max=%f", c.MessageDelayMin, c.MessageDelayMax)
	}
	if c.MessageDelayMin > c.MessageDelayMax {
		return fmt.Errorf("config: message_delay_min (%f) must be <= message_delay_max (%f)", c.MessageDelayMin, c.MessageDelayMax)
	}
	if c.ElectionTimeoutMin <= 0 || c.ElectionTimeoutMax <= 0 {
		return fmt.Errorf("config: election timeout bounds must be > 0, got min=%f max=%f", c.ElectionTimeoutMin, c.ElectionTimeoutMax)
	}
	if c.ElectionTimeoutMin > c.ElectionTimeoutMax {
		return fmt.Errorf("config: election_timeout_min (%f) must be <= election_timeout_max (%f)", c.ElectionTimeoutMin, c.ElectionTimeoutMax)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("config: heartbeat_interval must be > 0, got %f", c.HeartbeatInterval)
	}
	if c.HeartbeatInterval >= c.ElectionTimeoutMin {
		return fmt.Errorf("config: heartbeat_interval (%f) must be well below election_timeout_min (%f)", c.HeartbeatInterval, c.ElectionTimeoutMin)
	}
	if c.Chaos {
		if _, ok := fault.ByName(c.ChaosScenario); !ok {
			return fmt.Errorf("config: unknown chaos_scenario %q", c.ChaosScenario)
		}
	}
	return nil
}
