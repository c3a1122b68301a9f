package main

import (
	"runtime"
	"time"

	"github.com/erisonliang/dotdotnet/config"
	"github.com/erisonliang/dotdotnet/ppc"
	"github.com/erisonliang/dotdotnet/validation"
	"github.com/erisonliang/dotdotnet/version"
)

// Config is the ppcrun configuration, loaded from cmd/ppcrun/config.yml,
// .env files and PPCRUN_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	PPC       ppc.Config      `yaml:"ppc" mapstructure:"ppc"`
	Inputs    []string        `yaml:"inputs" mapstructure:"inputs"`
	Consumers int             `yaml:"consumers" mapstructure:"consumers" validate:"gte=1"`
	Top       int             `yaml:"top" mapstructure:"top" validate:"gte=0"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// TelemetryConfig controls the optional OTLP exporters.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.PPC.ApplyDefaults()
	if c.PPC.Name == ppc.DefaultName {
		c.PPC.Name = "wordcount"
	}
	if c.Consumers == 0 {
		c.Consumers = runtime.NumCPU()
	}
	if c.Top == 0 {
		c.Top = 10
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.MetricInterval == 0 {
		c.Telemetry.MetricInterval = 15 * time.Second
	}
}

func (c *Config) Validate() error {
	return validation.New().
		Merge("service", c.ServiceConfig.Validate()).
		Merge("config", validation.Validate(c)).
		Validate()
}
