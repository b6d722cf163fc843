package config

import (
	"flag"
	"fmt"
	"os"
)

// ParseFlags parses command-line flags and returns a Config. pairs_path is
// the sole positional argument; everything else is a named flag.
func ParseFlags(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("apertium-apy", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `apertium-apy - HTTP API gateway for installed MT toolchains

Usage:
  apertium-apy [flags] <pairs_path>

Flags:
`)
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.NonpairsPath, "nonpairs-path", cfg.NonpairsPath, "Directory of analyzer/generator/tagger mode files")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-translation deadline")

	fs.Int64Var(&cfg.MaxPipesPerPair, "max-pipes-per-pair", cfg.MaxPipesPerPair, "Maximum concurrently running pipelines per pair")
	fs.Int64Var(&cfg.MinPipesPerPair, "min-pipes-per-pair", cfg.MinPipesPerPair, "Minimum pipelines kept warm per pair (idle-eviction floor)")
	int32Var(fs, &cfg.MaxUsersPerPipe, "max-users-per-pipe", cfg.MaxUsersPerPipe, "Maximum concurrent users sharing one pipeline before spawning another")
	fs.Int64Var(&cfg.MaxIdleSecs, "max-idle-secs", cfg.MaxIdleSecs, "Idle eviction threshold in seconds (0 disables idle eviction)")
	fs.Int64Var(&cfg.RestartPipeAfter, "restart-pipe-after", cfg.RestartPipeAfter, "Unconditionally rotate a pipeline after this many translations")

	fs.DurationVar(&cfg.StatPeriodMaxAge, "stat-period-max-age", cfg.StatPeriodMaxAge, "Sliding window age bound for /stats period aggregates")
	fs.IntVar(&cfg.UnknownMemoryLimit, "unknown-memory-limit", cfg.UnknownMemoryLimit, "Buffered missing-token insertions before a flush to Redis")

	fs.IntVar(&cfg.NumProcesses, "num-processes", cfg.NumProcesses, "Worker process count (0 = one per core); documented as a prefork no-op, see DESIGN.md")

	fs.StringVar(&cfg.SSLCert, "ssl-cert", cfg.SSLCert, "TLS certificate path (enables HTTPS)")
	fs.StringVar(&cfg.SSLKey, "ssl-key", cfg.SSLKey, "TLS key path (enables HTTPS)")
	fs.BoolVar(&cfg.Daemon, "daemon", cfg.Daemon, "Accepted for compatibility; has no effect (the process stays in the foreground)")
	fs.StringVar(&cfg.LogPath, "log-path", cfg.LogPath, "Redirect logs to this file instead of stderr")

	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the missing-token store (empty disables durable backing)")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis logical database index")

	fs.StringVar(&cfg.RecaptchaSecret, "recaptcha-secret", cfg.RecaptchaSecret, "Google reCAPTCHA secret for /suggest (empty disables verification)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() < 1 {
		return nil, fmt.Errorf("pairs_path is required")
	}
	cfg.PairsPath = fs.Arg(0)

	return cfg, nil
}

// int32Var adapts flag's lack of an Int32Var to our int32 field via Func.
func int32Var(fs *flag.FlagSet, p *int32, name string, value int32, usage string) {
	*p = value
	fs.Func(name, usage+fmt.Sprintf(" (default %d)", value), func(s string) error {
		var v int
		if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
			return err
		}
		*p = int32(v)
		return nil
	})
}

// ApplyDaemonDefaults mirrors the original implementation's "doesn't fork
// anything new, just documents the knob" stance on --num-processes: a
// systems-language rewrite defaults to one process with internal
// concurrency, so 0 ("one per core") collapses to 1 here (see spec.md §9).
func ApplyDaemonDefaults(cfg *Config) {
	if cfg.NumProcesses <= 0 {
		cfg.NumProcesses = 1
	}
}
