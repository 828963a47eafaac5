package flappy

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config holds the physics and scoring parameters of the pipe world.
// Lengths are world units with the origin at the screen center and y up.
type Config struct {
	Width           float64 `ini:"width"`
	Height          float64 `ini:"height"`
	Gravity         float64 `ini:"gravity"`        // Vertical acceleration, negative pulls down
	MaxVelocity     float64 `ini:"max_velocity"`   // Agent speed is clamped to this magnitude
	PipeVelocity    float64 `ini:"pipe_velocity"`  // Leftward pipe speed
	JumpVelocity    float64 `ini:"jump_velocity"`  // Vertical speed set by a jump
	DeltaTime       float64 `ini:"delta_time"`     // Seconds per tick
	PipeGap         float64 `ini:"pipe_gap"`       // 0 means Height/4
	PipeVariation   float64 `ini:"pipe_variation"` // 0 means Height/2
	PipeWidth       float64 `ini:"pipe_width"`     // 0 means Width/50
	AgentRadius     float64 `ini:"agent_radius"`   // 0 means Width/50
	ScoreWeight     float64 `ini:"score_weight"`
	ProximityWeight float64 `ini:"proximity_weight"`
}

// DefaultConfig returns the original game's constants at 60 ticks per second.
func DefaultConfig() Config {
	return Config{
		Width:           2560,
		Height:          1440,
		Gravity:         -2000,
		MaxVelocity:     1000,
		PipeVelocity:    1000,
		JumpVelocity:    1249,
		DeltaTime:       1.0 / 60.0,
		ScoreWeight:     10,
		ProximityWeight: 1,
	}
}

// LoadConfig reads the [Environment] section of an INI file. Keys absent
// from the file keep their DefaultConfig values.
func LoadConfig(filePath string) (Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	if err := cfg.Section("Environment").StrictMapTo(&config); err != nil {
		return Config{}, fmt.Errorf("failed to map [Environment] section: %w", err)
	}
	config.fillDerived()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// fillDerived sets the size-relative defaults left at zero.
func (c *Config) fillDerived() {
	if c.PipeGap == 0 {
		c.PipeGap = c.Height / 4
	}
	if c.PipeVariation == 0 {
		c.PipeVariation = c.Height / 2
	}
	if c.PipeWidth == 0 {
		c.PipeWidth = c.Width / 50
	}
	if c.AgentRadius == 0 {
		c.AgentRadius = c.Width / 50
	}
}

// Validate checks that the world is physically meaningful.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config error: width and height must be positive")
	}
	if c.DeltaTime <= 0 {
		return fmt.Errorf("config error: delta_time must be positive")
	}
	if c.MaxVelocity <= 0 {
		return fmt.Errorf("config error: max_velocity must be positive")
	}
	if c.PipeGap <= 2*c.AgentRadius {
		return fmt.Errorf("config error: pipe_gap must exceed the agent diameter")
	}
	if c.PipeVariation < 0 || c.PipeVariation/2+c.PipeGap/2 >= c.Height/2 {
		return fmt.Errorf("config error: pipe_variation must keep the gap inside the world")
	}
	return nil
}
