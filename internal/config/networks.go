package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML fields written as "8m" or "90s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SpawnConfig tunes the duck scheduler for one network.
type SpawnConfig struct {
	MinSpawn     Duration `yaml:"min_spawn"`
	MaxSpawn     Duration `yaml:"max_spawn"`
	DespawnAfter Duration `yaml:"despawn_after"`
	GoldRatio    float64  `yaml:"gold_ratio" validate:"gte=0,lte=1"`
	MaxDucks     int      `yaml:"max_ducks" validate:"gte=0"`
	DuckXP       int      `yaml:"duck_xp" validate:"gte=0"`
}

// NetworkConfig describes one chat network connection.
type NetworkConfig struct {
	Name     string      `yaml:"name" validate:"required"`
	Type     string      `yaml:"type" validate:"required,oneof=irc discord"`
	Server   string      `yaml:"server" validate:"required_if=Type irc"`
	Nick     string      `yaml:"nick" validate:"required_if=Type irc"`
	Token    string      `yaml:"token" validate:"required_if=Type discord"`
	TLS      bool        `yaml:"tls"`
	Prefix   string      `yaml:"prefix"`
	Owners   []string    `yaml:"owners"`
	Admins   []string    `yaml:"admins"`
	Channels []string    `yaml:"channels"`
	Spawn    SpawnConfig `yaml:"spawn"`
}

// Networks is the parsed networks file.
type Networks struct {
	Networks []NetworkConfig `yaml:"networks" validate:"required,min=1,dive"`
}

// LoadNetworks reads and validates the networks YAML file, filling defaults
// for omitted spawn parameters.
func LoadNetworks(path string) (*Networks, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read networks file: %w", err)
	}

	var nets Networks
	if err := yaml.Unmarshal(data, &nets); err != nil {
		return nil, fmt.Errorf("failed to parse networks file: %w", err)
	}

	for i := range nets.Networks {
		applyNetworkDefaults(&nets.Networks[i])
	}

	if err := validator.New().Struct(&nets); err != nil {
		return nil, fmt.Errorf("invalid networks file: %w", err)
	}

	for _, n := range nets.Networks {
		if n.Spawn.MinSpawn > n.Spawn.MaxSpawn {
			return nil, fmt.Errorf("network %s: min_spawn exceeds max_spawn", n.Name)
		}
		if n.Type == "irc" && len(n.Channels) == 0 {
			return nil, fmt.Errorf("network %s: irc networks need at least one channel", n.Name)
		}
	}

	return &nets, nil
}

func applyNetworkDefaults(n *NetworkConfig) {
	if n.Prefix == "" {
		n.Prefix = DefaultPrefix
	}
	if n.Spawn.MinSpawn == 0 {
		n.Spawn.MinSpawn = Duration(DefaultMinSpawn)
	}
	if n.Spawn.MaxSpawn == 0 {
		n.Spawn.MaxSpawn = Duration(DefaultMaxSpawn)
	}
	if n.Spawn.DespawnAfter == 0 {
		n.Spawn.DespawnAfter = Duration(DefaultDespawnAfter)
	}
	if n.Spawn.GoldRatio == 0 {
		n.Spawn.GoldRatio = DefaultGoldRatio
	}
	if n.Spawn.MaxDucks == 0 {
		n.Spawn.MaxDucks = DefaultMaxDucks
	}
	if n.Spawn.DuckXP == 0 {
		n.Spawn.DuckXP = DefaultDuckXP
	}
}
