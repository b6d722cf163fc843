package stats

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apertium/apertium-apy/internal/modes"
	"go.uber.org/zap"
)

// Stats is the server-wide collaborator tracking uptime, per-pair use
// counts, and a sliding window of request timings for period aggregates.
type Stats struct {
	log     *zap.Logger
	start   time.Time
	win     *window
	verbose bool

	mu       sync.Mutex
	useCount map[modes.PairKey]int64

	vmHighWater atomic.Int64
}

// New constructs Stats with a sliding window bounded by maxAge
// (STAT_PERIOD_MAX_AGE). verbose gates the VmSize high-water-mark log,
// matching the original implementation's verbosity-gated diagnostic.
func New(log *zap.Logger, maxAge time.Duration, verbose bool) *Stats {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stats{
		log:      log.Named("stats"),
		start:    time.Now(),
		win:      newWindow(maxAge),
		verbose:  verbose,
		useCount: make(map[modes.PairKey]int64),
	}
}

// RecordCompletion appends a TimingSample and increments pair's use count.
// Called once per successful /translate (spec.md §4.5 step 4).
func (s *Stats) RecordCompletion(pair modes.PairKey, sample TimingSample) {
	pair = pair.Canonicalize()

	s.mu.Lock()
	s.useCount[pair]++
	s.mu.Unlock()

	s.win.Append(sample)
}

// UseCount returns the total number of completed requests for pair.
func (s *Stats) UseCount(pair modes.PairKey) int64 {
	pair = pair.Canonicalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useCount[pair]
}

// UseCounts returns a snapshot of every pair's use count.
func (s *Stats) UseCounts() map[modes.PairKey]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[modes.PairKey]int64, len(s.useCount))
	for k, v := range s.useCount {
		out[k] = v
	}
	return out
}

// Uptime returns the duration since Stats was constructed.
func (s *Stats) Uptime() time.Duration { return time.Since(s.start) }

// Aggregate summarizes the current sliding window, clamped to the last
// `requests` samples per /stats' query parameter.
type Aggregate struct {
	Requests      int
	TotalChars    int64
	CharsPerSec   float64
	OldestAgeSecs float64
}

// PeriodAggregate computes requests/total chars/chars-per-second/oldest
// sample age over the last n samples (n<=0 means the whole window).
func (s *Stats) PeriodAggregate(n int) Aggregate {
	samples := s.win.LastN(n)
	if len(samples) == 0 {
		return Aggregate{}
	}

	var totalChars int64
	var totalElapsed time.Duration
	for _, sample := range samples {
		totalChars += int64(sample.InputBytes)
		totalElapsed += sample.End.Sub(sample.Start)
	}

	agg := Aggregate{
		Requests:      len(samples),
		TotalChars:    totalChars,
		OldestAgeSecs: time.Since(samples[0].Start).Seconds(),
	}
	if totalElapsed > 0 {
		agg.CharsPerSec = float64(totalChars) / totalElapsed.Seconds()
	}
	return agg
}

// LogVMSize inspects /proc/self/status and logs a warning whenever VmSize
// reaches a new high-water mark, mirroring the original implementation's
// per-response diagnostic. A no-op when verbose logging is disabled or
// /proc is unavailable.
func (s *Stats) LogVMSize() {
	if !s.verbose {
		return
	}

	raw, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "VmSize:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return
		}
		num, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return
		}
		scale := map[string]int64{"kB": 1024, "KB": 1024, "mB": 1048576, "MB": 1048576}[fields[2]]
		if scale == 0 {
			return
		}
		vmsize := num * scale

		prev := s.vmHighWater.Load()
		if vmsize > prev && s.vmHighWater.CompareAndSwap(prev, vmsize) {
			s.log.Warn("VmSize high-water mark",
				zap.Int64("from_bytes", prev), zap.Int64("to_bytes", vmsize))
		}
		return
	}
}
