// Package validation checks run configuration before any work starts.
//
// Struct tag validation uses go-playground/validator; field names in messages
// follow the mapstructure tag so they match the config file keys:
//
//	type Config struct {
//	    Capacity int `mapstructure:"capacity" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg) // INVALID_INPUT: capacity: must be at least 1
//
// Programmatic checks collect errors the same way:
//
//	v := validation.New()
//	v.Check(len(producers) > 0, "producers", "at least one producer is required")
//	err := v.Validate()
package validation
