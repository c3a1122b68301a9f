package config

import (
	"fmt"
	"slices"

	"github.com/erisonliang/dotdotnet/logger"
	"github.com/erisonliang/dotdotnet/validation"
)

// ServiceConfig contains the fields every command needs. Commands embed it:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    PPC ppc.Config `yaml:"ppc" mapstructure:"ppc"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	envs := []string{"development", "staging", "production"}
	return validation.New().
		Check(c.Name != "", "name", "is required").
		Check(slices.Contains(envs, c.Environment), "environment",
			fmt.Sprintf("must be one of %v (got %q)", envs, c.Environment)).
		Merge("logging", c.Logging.Validate()).
		Validate()
}
