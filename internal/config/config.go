// Package config loads mygrad problem files.
//
// A problem file lists kernel evaluations to run on the reference AD host,
// together with gradient-check and logging settings:
//
//	logging:
//	  level: info
//	check:
//	  tolerance: 1e-6
//	workers: 4
//	problems:
//	  - name: worked-example
//	    kernel: sin_square
//	    inputs:
//	      - {name: alpha, values: [0, 1.5707963267948966], differentiable: true}
//	      - {name: beta, values: [2, 3], differentiable: true}
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Kernel names accepted in Problem.Kernel.
const (
	KernelSinSquare = "sin_square"
	KernelLogNormal = "lognormal"
	KernelNormal    = "normal"
	KernelLogDet    = "logdet"
)

// Environment overrides.
const (
	EnvLogLevel = "MYGRAD_LOG_LEVEL"
	EnvWorkers  = "MYGRAD_WORKERS"
)

// Config holds a problem file.
type Config struct {
	Logging  LoggingConfig `yaml:"logging"`
	Check    CheckConfig   `yaml:"check"`
	Fit      FitConfig     `yaml:"fit"`
	Workers  int           `yaml:"workers"` // 0 = one per CPU
	Problems []Problem     `yaml:"problems"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// CheckConfig configures finite-difference gradient checks.
type CheckConfig struct {
	Step       float64 `yaml:"step"`      // 0 = fd default
	Tolerance  float64 `yaml:"tolerance"` // relative
	Concurrent bool    `yaml:"concurrent"`
}

// Optimizer names accepted in FitConfig.Optimizer.
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

// FitConfig configures gradient-based fitting of a problem's differentiable
// inputs.
type FitConfig struct {
	Optimizer string  `yaml:"optimizer"`
	LR        float64 `yaml:"lr"`
	Momentum  float64 `yaml:"momentum"` // sgd only
	Steps     int     `yaml:"steps"`
	Maximize  bool    `yaml:"maximize"`
}

// Problem is one kernel evaluation.
type Problem struct {
	Name   string  `yaml:"name"`
	Kernel string  `yaml:"kernel"`
	Sigma  float64 `yaml:"sigma"` // lognormal / normal only; 0 = 1
	Inputs []Input `yaml:"inputs"`
}

// Input is one operand. Matrices set Rows and Cols and list values row-major;
// sequences and scalars leave both zero.
type Input struct {
	Name           string    `yaml:"name"`
	Values         []float64 `yaml:"values"`
	Rows           int       `yaml:"rows"`
	Cols           int       `yaml:"cols"`
	Differentiable bool      `yaml:"differentiable"`
}

// IsMatrix reports whether the input declares a matrix shape.
func (in Input) IsMatrix() bool {
	return in.Rows > 0 || in.Cols > 0
}

// DefaultConfig returns the default configuration with no problems.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Check:   CheckConfig{Tolerance: 1e-6},
		Fit:     FitConfig{Optimizer: OptimizerAdam, LR: 0.01, Steps: 100},
	}
}

// Load reads a YAML problem file on top of the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

// Problem returns the problem with the given name.
func (c *Config) Problem(name string) (Problem, bool) {
	for _, p := range c.Problems {
		if p.Name == name {
			return p, true
		}
	}
	return Problem{}, false
}

// Validate checks settings and the operand count and shapes of every problem.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: %w", c.Logging.Level, ErrInvalidConfig)
	}
	if c.Check.Tolerance <= 0 {
		return fmt.Errorf("check.tolerance %g must be > 0: %w", c.Check.Tolerance, ErrInvalidConfig)
	}
	if c.Check.Step < 0 {
		return fmt.Errorf("check.step %g must be >= 0: %w", c.Check.Step, ErrInvalidConfig)
	}
	switch c.Fit.Optimizer {
	case OptimizerSGD, OptimizerAdam:
	default:
		return fmt.Errorf("fit.optimizer %q: %w", c.Fit.Optimizer, ErrInvalidConfig)
	}
	if c.Fit.LR <= 0 || c.Fit.Steps < 1 {
		return fmt.Errorf("fit: lr %g and steps %d must be > 0: %w", c.Fit.LR, c.Fit.Steps, ErrInvalidConfig)
	}
	if c.Fit.Momentum < 0 || c.Fit.Momentum >= 1 {
		return fmt.Errorf("fit.momentum %g must be in [0, 1): %w", c.Fit.Momentum, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must be >= 0: %w", c.Workers, ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Problems))
	for i, p := range c.Problems {
		if p.Name == "" {
			return fmt.Errorf("problems[%d]: missing name: %w", i, ErrInvalidConfig)
		}
		if seen[p.Name] {
			return fmt.Errorf("problem %q: duplicate name: %w", p.Name, ErrInvalidConfig)
		}
		seen[p.Name] = true
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the problem's inputs fit its kernel.
func (p Problem) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("problem %q: %s: %w", p.Name, fmt.Sprintf(format, args...), ErrInvalidConfig)
	}
	if p.Sigma < 0 {
		return fail("sigma %g must be >= 0", p.Sigma)
	}
	for _, in := range p.Inputs {
		if in.IsMatrix() && in.Rows*in.Cols != len(in.Values) {
			return fail("input %q: %d values for %d×%d matrix", in.Name, len(in.Values), in.Rows, in.Cols)
		}
	}

	switch p.Kernel {
	case KernelSinSquare:
		if len(p.Inputs) != 2 {
			return fail("%s takes 2 inputs, got %d", p.Kernel, len(p.Inputs))
		}
		for _, in := range p.Inputs {
			if in.IsMatrix() {
				return fail("input %q must be a sequence", in.Name)
			}
		}
	case KernelLogNormal, KernelNormal:
		if len(p.Inputs) != 2 {
			return fail("%s takes 2 inputs (y, mu), got %d", p.Kernel, len(p.Inputs))
		}
		for _, in := range p.Inputs {
			if in.IsMatrix() || len(in.Values) != 1 {
				return fail("input %q must be a scalar", in.Name)
			}
		}
	case KernelLogDet:
		if len(p.Inputs) != 1 {
			return fail("%s takes 1 input, got %d", p.Kernel, len(p.Inputs))
		}
		if in := p.Inputs[0]; !in.IsMatrix() || in.Rows != in.Cols {
			return fail("input %q must be a square matrix", in.Name)
		}
	default:
		return fail("unknown kernel %q", p.Kernel)
	}
	return nil
}
