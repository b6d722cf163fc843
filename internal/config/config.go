// Package config provides configuration management for the translation
// gateway: CLI flags, defaults, and cross-field validation.
package config

import "time"

// Config holds every runtime-tunable knob the gateway exposes, sourced from
// the CLI surface.
type Config struct {
	// Mode discovery
	PairsPath    string `json:"pairs_path"`
	NonpairsPath string `json:"nonpairs_path"`

	// HTTP server
	Port    int    `json:"port"`
	SSLCert string `json:"ssl_cert"`
	SSLKey  string `json:"ssl_key"`

	// Translation
	Timeout time.Duration `json:"timeout"`

	// Pool admission/eviction
	MaxPipesPerPair  int64 `json:"max_pipes_per_pair"`
	MinPipesPerPair  int64 `json:"min_pipes_per_pair"`
	MaxUsersPerPipe  int32 `json:"max_users_per_pipe"`
	MaxIdleSecs      int64 `json:"max_idle_secs"`
	RestartPipeAfter int64 `json:"restart_pipe_after"`

	// Stats
	StatPeriodMaxAge time.Duration `json:"stat_period_max_age"`

	// Missing-token store
	UnknownMemoryLimit int `json:"unknown_memory_limit"`

	// Process model
	NumProcesses int `json:"num_processes"`

	// Daemonization / logging
	Daemon  bool   `json:"daemon"`
	LogPath string `json:"log_path"`

	// Redis (missing-token durable backing; empty disables it)
	RedisAddr string `json:"redis_addr"`
	RedisDB   int    `json:"redis_db"`

	// ReCAPTCHA secret for the /suggest wiki-feedback gate; empty disables
	// verification (suggestions are still CSRF-gated regardless).
	RecaptchaSecret string `json:"recaptcha_secret"`
}

// DefaultConfig returns a Config with spec-mandated defaults (spec.md §6).
func DefaultConfig() *Config {
	return &Config{
		Port:    2737,
		Timeout: 10 * time.Second,

		MaxPipesPerPair:  1,
		MinPipesPerPair:  0,
		MaxUsersPerPipe:  5,
		MaxIdleSecs:      0,
		RestartPipeAfter: 1000,

		StatPeriodMaxAge: 3600 * time.Second,

		UnknownMemoryLimit: 1000,

		NumProcesses: 1,
	}
}
