//go:build linux

package pipeline

import (
	"bufio"
	"errors"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// process supervises exactly one spawned stage of a Pipeline's command
// chain: start it, drain its stderr into the logger, and tear it down
// deterministically (SIGTERM → grace → SIGKILL). Stdin/stdout wiring
// between stages is the caller's (Pipeline's) responsibility — process
// only owns stderr and the child's lifecycle.
//
// Start/Close are idempotent and safe for concurrent use.
type process struct {
	log     *zap.Logger
	program string

	cmd    *exec.Cmd
	stderr io.ReadCloser

	done      chan struct{}
	closeOnce sync.Once
	startOnce sync.Once

	started atomic.Bool
	pid     atomic.Int64

	mu sync.Mutex
}

func newProcess(log *zap.Logger, cmd *exec.Cmd) (*process, error) {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}

	return &process{
		log:     log,
		program: cmd.Path,
		cmd:     cmd,
		stderr:  stderr,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the command exactly once.
func (p *process) Start() error {
	var startErr error
	p.startOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		if err := p.cmd.Start(); err != nil {
			startErr = err
			return
		}

		p.started.Store(true)
		p.pid.Store(int64(p.cmd.Process.Pid))
		p.log.Debug("pipeline stage started",
			zap.String("program", p.program), zap.Int("pid", p.cmd.Process.Pid))

		go p.supervise()
	})
	return startErr
}

// supervise drains stderr into the logger and reaps the child on exit.
func (p *process) supervise() {
	sc := bufio.NewScanner(p.stderr)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		p.log.Warn("pipeline stage stderr",
			zap.String("program", p.program), zap.String("line", sc.Text()))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.cmd.Wait(); err != nil {
		var eerr *exec.ExitError
		if errors.As(err, &eerr) {
			p.log.Warn("pipeline stage exited nonzero",
				zap.String("program", p.program), zap.Int("exit_code", eerr.ExitCode()))
		} else {
			p.log.Error("pipeline stage wait failed",
				zap.String("program", p.program), zap.Error(err))
		}
	} else {
		p.log.Debug("pipeline stage exited cleanly", zap.String("program", p.program))
	}

	close(p.done)
}

// Done fires once the child has been reaped.
func (p *process) Done() <-chan struct{} { return p.done }

// Close sends SIGTERM to the process group, waits up to a grace period,
// then escalates to SIGKILL. Blocks until the child is reaped. Idempotent.
func (p *process) Close(grace time.Duration) {
	p.closeOnce.Do(func() {
		if !p.started.Load() {
			return
		}
		select {
		case <-p.done:
			return
		default:
		}

		pid := int(p.pid.Load())
		if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
			p.log.Warn("SIGTERM failed", zap.Error(err), zap.Int("pid", pid))
		}

		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-p.done:
			return
		case <-timer.C:
			p.log.Warn("grace period expired; sending SIGKILL", zap.Int("pid", pid))
			if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
				p.log.Error("SIGKILL failed", zap.Error(err), zap.Int("pid", pid))
			}
			<-p.done
		}
	})
}
