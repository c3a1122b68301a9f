// Package config loads service configuration with Viper.
//
// A config.yml found next to the command (or passed explicitly) provides the
// base values, an optional .env file is loaded into the environment, and
// environment variables carrying the service prefix override both:
//
//	PPCRUN_PPC_CAPACITY=64  ->  ppc.capacity
//
// After unmarshalling, targets implementing ApplyDefaults and Validate are
// defaulted and validated.
//
//	var cfg Config
//	err := config.LoadConfig("ppcrun", &cfg)
package config
