package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
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
	// Both stores list their records by prefix, so neither prefix may
	// contain the other.
	meta, alias := cfg.Metadata.KeyPrefix, cfg.Aliases.KeyPrefix
	if strings.HasPrefix(meta, alias) || strings.HasPrefix(alias, meta) {
		return fmt.Errorf("metadata.key_prefix %q and aliases.key_prefix %q overlap", meta, alias)
	}

	if cfg.Storage.RateLimit.RequestsPerSecond == 0 && cfg.Storage.RateLimit.Burst > 0 {
		return fmt.Errorf("storage.rate_limit: burst is set but requests_per_second is 0")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics: port is required when metrics are enabled")
	}

	return nil
}

// validateBackend validates a decoded backend configuration struct.
func validateBackend(name string, backendCfg any) error {
	if err := validate.Struct(backendCfg); err != nil {
		return fmt.Errorf("%s store: %w", name, formatValidationError(err))
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
