//go:build linux

// Package pipeline runs one ParsedMode as a chain of live subprocesses and
// serves translations over its shared stdin/stdout using a null-byte
// sentinel framing protocol.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/apertium/apertium-apy/internal/modes"
	"go.uber.org/zap"
)

// State is a Pipeline's lifecycle state.
type State int32

const (
	Ready State = iota
	Draining
	Dead
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Draining:
		return "draining"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// sentinel is the null-byte frame terminator described by the wire
// protocol: every stage emits it immediately after its translated output.
const sentinel = 0x00

// killGrace bounds how long shutdown waits for a stage to exit on its own
// before escalating to SIGKILL.
const killGrace = 3 * time.Second

// Pipeline is a running instance of a ParsedMode: a chain of subprocesses
// whose stdouts feed the next stdin, plus bookkeeping used by the pool for
// selection and eviction.
type Pipeline struct {
	Parsed  *modes.ParsedMode
	DebugID int64

	log *zap.Logger

	procs  []*process
	stdin  io.WriteCloser
	stdout io.ReadCloser
	// stdoutReader persists across Translate calls so that bytes the
	// buffered reader pulls ahead of a sentinel are never dropped between
	// requests.
	stdoutReader *bufio.Reader

	// translateMu is the single critical section for the whole translate
	// call (write-sentinel, read-until-sentinel), per spec's simpler
	// correct implementation of the sentinel protocol.
	translateMu sync.Mutex

	state    atomic.Int32
	useCount atomic.Int64
	users    atomic.Int32

	lastUsageMu sync.Mutex
	lastUsage   time.Time

	shutdownOnce sync.Once
}

// Start spawns every stage of parsed, wiring stage i's stdout to stage
// i+1's stdin. Partial failures kill all already-started stages and
// return a SpawnError.
func Start(log *zap.Logger, parsed *modes.ParsedMode, env []string, debugID int64) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(parsed.Stages) == 0 {
		return nil, &SpawnError{Program: "<none>", Err: errors.New("parsed mode has no stages")}
	}

	n := len(parsed.Stages)
	procs := make([]*process, n)

	var stdin io.WriteCloser
	var stdout io.ReadCloser
	var prevReader io.Reader

	killStarted := func(upto int) {
		for i := upto - 1; i >= 0; i-- {
			procs[i].Close(killGrace)
		}
	}

	for i, spec := range parsed.Stages {
		cmd := exec.Command(spec.Program, spec.Args...)
		cmd.Dir = spec.Dir
		cmd.Env = env

		if i == 0 {
			w, err := cmd.StdinPipe()
			if err != nil {
				return nil, &SpawnError{Program: spec.Program, Err: err}
			}
			stdin = w
		} else {
			cmd.Stdin = prevReader
		}

		if i == n-1 {
			r, err := cmd.StdoutPipe()
			if err != nil {
				killStarted(i)
				return nil, &SpawnError{Program: spec.Program, Err: err}
			}
			stdout = r
		} else {
			pr, pw := io.Pipe()
			cmd.Stdout = pw
			prevReader = pr
		}

		proc, err := newProcess(log.Named("stage"), cmd)
		if err != nil {
			killStarted(i)
			return nil, &SpawnError{Program: spec.Program, Err: err}
		}
		procs[i] = proc
	}

	for i, proc := range procs {
		if err := proc.Start(); err != nil {
			killStarted(i)
			return nil, &SpawnError{Program: parsed.Stages[i].Program, Err: err}
		}
	}

	pl := &Pipeline{
		Parsed:       parsed,
		DebugID:      debugID,
		log:          log.Named("pipeline"),
		procs:        procs,
		stdin:        stdin,
		stdout:       stdout,
		stdoutReader: bufio.NewReaderSize(stdout, 64*1024),
		lastUsage:    time.Now(),
	}
	pl.state.Store(int32(Ready))
	return pl, nil
}

// State returns the current lifecycle state.
func (pl *Pipeline) State() State { return State(pl.state.Load()) }

func (pl *Pipeline) markDead() { pl.state.Store(int32(Dead)) }

// SetDraining moves the Pipeline into the Draining state (Holding Area
// membership), preventing further selection by the pool.
func (pl *Pipeline) SetDraining() {
	pl.state.CompareAndSwap(int32(Ready), int32(Draining))
}

// Users returns the current number of requests holding this Pipeline.
func (pl *Pipeline) Users() int32 { return pl.users.Load() }

// IncrUsers increments the users count and returns the new value.
func (pl *Pipeline) IncrUsers() int32 { return pl.users.Add(1) }

// DecrUsers decrements the users count and returns the new value.
func (pl *Pipeline) DecrUsers() int32 { return pl.users.Add(-1) }

// UseCount returns the number of translations successfully completed.
func (pl *Pipeline) UseCount() int64 { return pl.useCount.Load() }

// LastUsage returns the timestamp of the most recent request start.
func (pl *Pipeline) LastUsage() time.Time {
	pl.lastUsageMu.Lock()
	defer pl.lastUsageMu.Unlock()
	return pl.lastUsage
}

func (pl *Pipeline) touchLastUsage() {
	pl.lastUsageMu.Lock()
	defer pl.lastUsageMu.Unlock()
	now := time.Now()
	if now.After(pl.lastUsage) {
		pl.lastUsage = now
	}
}

// Translate is the wire-protocol critical section: write text followed by
// the sentinel, then read back the matching response up to the next
// sentinel. It takes translateMu for its whole duration (the simpler
// correct serialization described by the spec), so only one request is
// ever in flight against this Pipeline's stdin/stdout at a time.
//
// On context cancellation the call abandons its read/write, marks the
// Pipeline Dead, and returns DeadlineExceeded. On any I/O error the
// Pipeline is marked Dead and PipeBroken is returned.
func (pl *Pipeline) Translate(ctx context.Context, text string) (string, error) {
	pl.translateMu.Lock()
	defer pl.translateMu.Unlock()

	if pl.State() == Dead {
		return "", &PipeBroken{DebugID: pl.DebugID, Err: errors.New("pipeline already dead")}
	}

	pl.touchLastUsage()

	type outcome struct {
		text string
		err  error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		g, _ := errgroup.WithContext(context.Background())
		var response []byte

		g.Go(func() error {
			_, err := pl.stdin.Write(append([]byte(text), sentinel))
			return err
		})
		g.Go(func() error {
			var err error
			response, err = readUntilSentinel(pl.stdoutReader)
			return err
		})

		err := g.Wait()
		if err != nil {
			resultCh <- outcome{err: err}
			return
		}
		if !utf8.Valid(response) {
			resultCh <- outcome{err: &DecodeError{DebugID: pl.DebugID}}
			return
		}
		resultCh <- outcome{text: string(response)}
	}()

	select {
	case <-ctx.Done():
		pl.markDead()
		return "", &DeadlineExceeded{DebugID: pl.DebugID}
	case r := <-resultCh:
		if r.err != nil {
			var decodeErr *DecodeError
			if errors.As(r.err, &decodeErr) {
				return "", r.err
			}
			pl.markDead()
			return "", &PipeBroken{DebugID: pl.DebugID, Err: r.err}
		}
		pl.useCount.Add(1)
		return r.text, nil
	}
}

// readUntilSentinel reads bytes from br up to (and consuming, but not
// returning) the first sentinel byte. br must persist across calls so that
// any bytes buffered past the sentinel remain available to the next call.
func readUntilSentinel(br *bufio.Reader) ([]byte, error) {
	data, err := br.ReadBytes(sentinel)
	if err != nil {
		return nil, err
	}
	return data[:len(data)-1], nil
}

// Shutdown closes the first stage's stdin, waits for every stage to exit
// in order (bounded by killGrace), then force-terminates stragglers.
// Idempotent.
func (pl *Pipeline) Shutdown() {
	pl.shutdownOnce.Do(func() {
		pl.markDead()
		_ = pl.stdin.Close()
		for _, proc := range pl.procs {
			proc.Close(killGrace)
		}
		pl.log.Debug("pipeline shut down", zap.Int64("debug_id", pl.DebugID))
	})
}
