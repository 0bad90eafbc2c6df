// Package config loads agent configuration from YAML and turns it into a
// ready-to-run agent. Unknown keys are rejected so typos fail loudly, and
// the api_key field supports ${VAR} environment expansion so secrets stay
// out of config files.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/agentloop/agentloop"
	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
)

// Config describes one agent: which vendor backs it and how the run loop
// behaves.
type Config struct {
	Name              string  `yaml:"name"`
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int64   `yaml:"max_tokens"`
	MaxToolIterations int     `yaml:"max_tool_iterations"`
	SystemPrompt      string  `yaml:"system_prompt"`
	BasePrompt        string  `yaml:"base_prompt"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML config. Unknown fields are an error.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the provider name against the closed adapter set.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !slices.Contains(agentloop.ProviderNames, c.Provider) {
		return fmt.Errorf("unknown provider %q (supported: %v)",
			c.Provider, agentloop.ProviderNames)
	}
	return nil
}

// Build constructs the provider and agent described by the config. optFns
// can layer run options (tools, hook, files) on top of what YAML carries.
func (c *Config) Build(ctx context.Context, logger logging.Logger, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p, err := agentloop.NewProvider(ctx, c.Provider, func(o *agentloop.ProviderOptions) {
		o.Model = c.Model
		o.APIKey = os.ExpandEnv(c.APIKey)
		o.Temperature = c.Temperature
		o.MaxTokens = c.MaxTokens
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	name := c.Name
	if name == "" {
		name = c.Provider + "-agent"
	}

	fns := append([]func(o *agent.Options){func(o *agent.Options) {
		o.SystemPrompt = c.SystemPrompt
		o.BasePrompt = c.BasePrompt
		if c.MaxToolIterations > 0 {
			o.MaxToolIterations = c.MaxToolIterations
		}
		o.Config = provider.Config{
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
		}
		o.Logger = logger
	}}, optFns...)

	return agent.New(name, p, fns...), nil
}
