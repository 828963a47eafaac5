package neat

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the evolutionary core.
type Config struct {
	Neat   NeatConfig
	Genome GenomeConfig
}

// NeatConfig holds parameters of the population loop itself.
type NeatConfig struct {
	PopSize  int   `ini:"pop_size"`
	MaxTicks int   `ini:"max_ticks"` // 0 means a generation runs until every agent has died
	Seed     int64 `ini:"seed"`      // 0 means seed from the clock
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	// --- Topology ---
	NumInputs   int  `ini:"num_inputs"`
	FeedForward bool `ini:"feed_forward"` // If true, add-connection never closes a cycle

	// --- Connection Gene parameters ---
	WeightInitMin float64 `ini:"weight_init_min"`
	WeightInitMax float64 `ini:"weight_init_max"`

	// --- Mutation ---
	PerturbationPower  float64 `ini:"perturbation_power"`
	StructuralMutation bool    `ini:"structural_mutation"`
	NodeAddProb        float64 `ini:"node_add_prob"`
	ConnAddProb        float64 `ini:"conn_add_prob"`
}

// loadOptions are shared by every loader reading the run's INI file.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:         true, // Only whole-line comments; values keep any # or ;
	UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize: 10,
		},
		Genome: GenomeConfig{
			NumInputs:          6,
			WeightInitMin:      -1.0,
			WeightInitMax:      1.0,
			PerturbationPower:  0.1,
			StructuralMutation: true,
			NodeAddProb:        0.02,
			ConnAddProb:        0.05,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file.
// Keys absent from the file keep their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(loadOptions, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return parseConfig(cfg)
}

// ParseConfig reads configuration parameters from INI data held in memory.
func ParseConfig(data []byte) (*Config, error) {
	cfg, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return parseConfig(cfg)
}

func parseConfig(cfg *ini.File) (*Config, error) {
	config := DefaultConfig()

	// Map sections to structs
	if err := cfg.Section("NEAT").StrictMapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").StrictMapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the value ranges of every parameter.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Neat.MaxTicks < 0 {
		return fmt.Errorf("config error: max_ticks cannot be negative")
	}
	if c.Genome.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Genome.WeightInitMax < c.Genome.WeightInitMin {
		return fmt.Errorf("config error: weight_init_max cannot be less than weight_init_min")
	}
	if c.Genome.PerturbationPower < 0 {
		return fmt.Errorf("config error: perturbation_power cannot be negative")
	}
	if c.Genome.NodeAddProb < 0 || c.Genome.NodeAddProb > 1 {
		return fmt.Errorf("config error: node_add_prob must be between 0 and 1")
	}
	if c.Genome.ConnAddProb < 0 || c.Genome.ConnAddProb > 1 {
		return fmt.Errorf("config error: conn_add_prob must be between 0 and 1")
	}
	return nil
}
