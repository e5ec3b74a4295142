package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Only the memory connector writes snapshots
	if cfg.Snapshot.Type != "none" && cfg.Connector.Type != "memory" {
		return fmt.Errorf("snapshot: type %q requires the memory connector (got %q)", cfg.Snapshot.Type, cfg.Connector.Type)
	}

	if cfg.Groups.MinDense > cfg.Groups.MaxCompact {
		return fmt.Errorf("groups: min_dense (%d) must not exceed max_compact (%d)", cfg.Groups.MinDense, cfg.Groups.MaxCompact)
	}

	if cfg.Groups.IndexCreationOrder && !cfg.Groups.TrackCreationOrder {
		return fmt.Errorf("groups: index_creation_order requires track_creation_order")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
