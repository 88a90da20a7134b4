package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/physiology"
)

const (
	DefaultModel    = "dallaman"
	DefaultMethod   = "RK45"
	DefaultTEnd     = 600.0
	DefaultDt       = 0.1
	DefaultTol      = 1e-6
	DefaultMaxSteps = 500000
)

// Config is a scenario file. Params holds overrides on top of the model's
// default parameter table.
type Config struct {
	Model     string             `yaml:"model"`
	Method    string             `yaml:"method"`
	Meal      float64            `yaml:"meal"`
	TStart    float64            `yaml:"t_start"`
	TEnd      float64            `yaml:"t_end"`
	Dt        float64            `yaml:"dt"`
	RTol      float64            `yaml:"rtol"`
	ATol      float64            `yaml:"atol"`
	MaxSteps  int                `yaml:"max_steps"`
	FixedStep float64            `yaml:"fixed_step,omitempty"`
	Strict    bool               `yaml:"strict"`
	Params    map[string]float64 `yaml:"params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Method:   DefaultMethod,
		Meal:     physiology.DefaultMeal,
		TStart:   0,
		TEnd:     DefaultTEnd,
		Dt:       DefaultDt,
		RTol:     DefaultTol,
		ATol:     DefaultTol,
		MaxSteps: DefaultMaxSteps,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Params != nil {
		cp.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			cp.Params[k] = v
		}
	}
	return &cp
}

func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto decodes the file at path over a copy of base. Keys absent from
// the file keep their base values; params maps are merged key by key.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetParam records one override, allocating the map on first use.
func (c *Config) SetParam(name string, value float64) {
	if c.Params == nil {
		c.Params = make(map[string]float64)
	}
	c.Params[name] = value
}

// Request converts the scenario into a simulation request.
func (c *Config) Request() experiment.Request {
	req := experiment.Request{
		Model:     c.Model,
		Strict:    c.Strict,
		Meal:      c.Meal,
		TSpan:     [2]float64{c.TStart, c.TEnd},
		Dt:        c.Dt,
		Method:    c.Method,
		RTol:      c.RTol,
		ATol:      c.ATol,
		MaxSteps:  c.MaxSteps,
		FixedStep: c.FixedStep,
	}
	if len(c.Params) > 0 {
		req.Params = c.Clone().Params
	}
	return req
}
