package config

import (
	"testing"
	"time"
)

func TestDefaultConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()

	cases := map[string]struct{ got, want any }{
		"Port":               {cfg.Port, 2737},
		"Timeout":            {cfg.Timeout, 10 * time.Second},
		"MaxPipesPerPair":    {cfg.MaxPipesPerPair, int64(1)},
		"MinPipesPerPair":    {cfg.MinPipesPerPair, int64(0)},
		"MaxUsersPerPipe":    {cfg.MaxUsersPerPipe, int32(5)},
		"MaxIdleSecs":        {cfg.MaxIdleSecs, int64(0)},
		"RestartPipeAfter":   {cfg.RestartPipeAfter, int64(1000)},
		"StatPeriodMaxAge":   {cfg.StatPeriodMaxAge, 3600 * time.Second},
		"UnknownMemoryLimit": {cfg.UnknownMemoryLimit, 1000},
		"NumProcesses":       {cfg.NumProcesses, 1},
	}

	for name, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", name, tc.got, tc.want)
		}
	}
}
