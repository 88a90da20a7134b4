package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"dallaman": {
		"standard": DefaultConfig(),
		"fasting": preset(func(c *Config) {
			c.Meal = 0
		}),
		"large-meal": preset(func(c *Config) {
			c.Meal = 120000
			c.Params = map[string]float64{"D": 120000}
		}),
		"insulin-resistant": preset(func(c *Config) {
			c.Params = map[string]float64{"V_mX": 0.0235, "k_p3": 0.0045}
		}),
		"slow-gastric": preset(func(c *Config) {
			c.Params = map[string]float64{"k_max": 0.03, "k_gri": 0.03}
		}),
		"long-horizon": preset(func(c *Config) {
			c.TEnd = 1440
			c.Dt = 1
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
