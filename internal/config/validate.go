package config

import (
	"errors"
	"fmt"
	"os"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks cfg for errors and inconsistencies, returning a combined
// error (via errors.Join) describing every problem found, or nil.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.PairsPath == "" {
		errs = append(errs, ValidationError{Field: "pairs_path", Message: "is required"})
	} else if info, err := os.Stat(cfg.PairsPath); err != nil || !info.IsDir() {
		errs = append(errs, ValidationError{Field: "pairs_path", Message: "must be an existing directory"})
	}

	if cfg.NonpairsPath != "" {
		if info, err := os.Stat(cfg.NonpairsPath); err != nil || !info.IsDir() {
			errs = append(errs, ValidationError{Field: "nonpairs_path", Message: "must be an existing directory"})
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{Field: "port", Message: "must be between 1 and 65535"})
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "timeout", Message: "must be positive"})
	}

	if cfg.MaxPipesPerPair < 1 {
		errs = append(errs, ValidationError{Field: "max_pipes_per_pair", Message: "must be at least 1"})
	}
	if cfg.MinPipesPerPair < 0 {
		errs = append(errs, ValidationError{Field: "min_pipes_per_pair", Message: "must not be negative"})
	}
	if cfg.MinPipesPerPair > cfg.MaxPipesPerPair {
		errs = append(errs, ValidationError{Field: "min_pipes_per_pair", Message: "must not exceed max_pipes_per_pair"})
	}
	if cfg.MaxUsersPerPipe < 1 {
		errs = append(errs, ValidationError{Field: "max_users_per_pipe", Message: "must be at least 1"})
	}
	if cfg.MaxIdleSecs < 0 {
		errs = append(errs, ValidationError{Field: "max_idle_secs", Message: "must not be negative"})
	}
	if cfg.RestartPipeAfter < 0 {
		errs = append(errs, ValidationError{Field: "restart_pipe_after", Message: "must not be negative"})
	}

	if cfg.StatPeriodMaxAge <= 0 {
		errs = append(errs, ValidationError{Field: "stat_period_max_age", Message: "must be positive"})
	}
	if cfg.UnknownMemoryLimit < 1 {
		errs = append(errs, ValidationError{Field: "unknown_memory_limit", Message: "must be at least 1"})
	}

	if (cfg.SSLCert == "") != (cfg.SSLKey == "") {
		errs = append(errs, ValidationError{Field: "ssl_cert", Message: "ssl-cert and ssl-key must be set together"})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
