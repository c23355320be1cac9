package vm

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ---------------------------------------------------------------------------
// Config: Per-interpreter runtime configuration (quill.toml)
// ---------------------------------------------------------------------------

// DefaultRecursionLimit is the initial recursion-depth limit consulted by
// the evaluation loop.
const DefaultRecursionLimit = 1000

// Config holds per-interpreter tuning. Pool capacities are validated once
// at interpreter creation and never resized afterwards; this keeps the
// allocation-avoidance guarantee of the recycling pools intact.
type Config struct {
	// RecursionLimit is consulted (not enforced) by the evaluation loop.
	RecursionLimit int `toml:"recursion-limit"`

	// OwnToken grants the interpreter its own exclusive-execution token
	// instead of sharing the process-wide one. Interpreters with their own
	// token run in parallel but must move data via the share registry.
	OwnToken bool `toml:"own-token"`

	Pools PoolConfig `toml:"pools"`
}

// PoolConfig fixes the capacity of each recycling pool. A capacity of zero
// disables that pool: every acquire misses and every release overflows,
// which is always correct, just slower.
type PoolConfig struct {
	// MaxTupleArity is the largest tuple size eligible for pooling.
	// Requests above it bypass pooling entirely.
	MaxTupleArity int `toml:"max-tuple-arity"`
	Tuples        int `toml:"tuples"` // per arity
	Lists         int `toml:"lists"`
	Dicts         int `toml:"dicts"`
	DictKeys      int `toml:"dict-keys"`
	Floats        int `toml:"floats"`
	Frames        int `toml:"frames"`
	GenValues     int `toml:"gen-values"`
	GenSends      int `toml:"gen-sends"`
	Contexts      int `toml:"contexts"`
	MemErrors     int `toml:"mem-errors"`
}

// DefaultConfig returns the configuration used when no quill.toml overrides
// anything.
func DefaultConfig() Config {
	return Config{
		RecursionLimit: DefaultRecursionLimit,
		Pools: PoolConfig{
			MaxTupleArity: 20,
			Tuples:        2000,
			Lists:         80,
			Dicts:         80,
			DictKeys:      80,
			Floats:        100,
			Frames:        200,
			GenValues:     80,
			GenSends:      80,
			Contexts:      255,
			MemErrors:     16,
		},
	}
}

// LoadConfig parses a quill.toml file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot honor.
func (c *Config) Validate() error {
	if c.RecursionLimit <= 0 {
		return fmt.Errorf("recursion-limit must be positive, got %d", c.RecursionLimit)
	}
	p := &c.Pools
	if p.MaxTupleArity < 0 {
		return fmt.Errorf("max-tuple-arity must be non-negative, got %d", p.MaxTupleArity)
	}
	for _, e := range []struct {
		name string
		v    int
	}{
		{"tuples", p.Tuples},
		{"lists", p.Lists},
		{"dicts", p.Dicts},
		{"dict-keys", p.DictKeys},
		{"floats", p.Floats},
		{"frames", p.Frames},
		{"gen-values", p.GenValues},
		{"gen-sends", p.GenSends},
		{"contexts", p.Contexts},
		{"mem-errors", p.MemErrors},
	} {
		if e.v < 0 {
			return fmt.Errorf("pool capacity %s must be non-negative, got %d", e.name, e.v)
		}
	}
	return nil
}

// ApplyConfig re-validates cfg and installs it on the interpreter. Pool
// capacities are fixed at creation: a config that changes them is rejected
// rather than silently ignored.
func (interp *InterpreterState) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Pools != interp.config.Pools {
		return fmt.Errorf("%w: pool capacities are fixed at interpreter creation", ErrConfigImmutable)
	}
	if cfg.OwnToken != interp.config.OwnToken {
		return fmt.Errorf("%w: token mode is fixed at interpreter creation", ErrConfigImmutable)
	}
	interp.config = cfg
	interp.ceval.SetRecursionLimit(cfg.RecursionLimit)
	return nil
}

// Config returns a copy of the interpreter's current configuration.
func (interp *InterpreterState) Config() Config {
	return interp.config
}
