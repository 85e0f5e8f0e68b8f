// Package proc runs and supervises simulator child processes.
package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// stopGracePeriod is how long Close waits for processes to exit after a
// termination request before killing them.
const stopGracePeriod = 5 * time.Second

// ErrRunnerClosed is returned by Start after the runner has been stopped or closed.
var ErrRunnerClosed = errors.New("process runner is closed")

// StartOptions describes one process submission.
type StartOptions struct {
	// Args is the full argument vector; Args[0] is the executable path.
	Args []string
	// Name labels the process in output and logs. Defaults to the executable name.
	Name string
	// Daemon processes may exit with an error without stopping the whole
	// runner; a failing non-daemon process requests a stop of all siblings.
	Daemon bool
	// Dir is the working directory of the process.
	Dir string
	// StreamStdout captures stdout/stderr line by line into the sink.
	StreamStdout bool
	// UseStdin connects the process directly to the launcher's own
	// terminal. Mutually exclusive with StreamStdout.
	UseStdin bool
}

// Process is a handle to one supervised child process.
type Process struct {
	name string
	cmd  *exec.Cmd
	pw   *io.PipeWriter
	done chan struct{}

	mu      sync.Mutex
	exitErr error
}

// Name returns the label the process was started with.
func (p *Process) Name() string { return p.name }

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the process exits or ctx is done, and returns the
// process exit error, if any.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.exitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Process) terminate() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)
	}
}

func (p *Process) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// Runner starts child processes and supervises them until Close. All
// processes started through one Runner form a single shutdown domain.
type Runner struct {
	sink *ConsoleSink

	mu      sync.Mutex
	procs   []*Process
	wg      sync.WaitGroup
	stopped bool
	closed  bool
}

// NewRunner creates a Runner. The sink may be nil when no process output
// will be streamed.
func NewRunner(sink *ConsoleSink) *Runner {
	return &Runner{sink: sink}
}

// Start launches a process and registers it with the runner. A cancelled
// ctx sends the process a termination signal.
func (r *Runner) Start(ctx context.Context, opts StartOptions) (*Process, error) {
	if len(opts.Args) == 0 {
		return nil, errors.New("empty argument vector")
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.Args[0])
	}

	cmd := exec.Command(opts.Args[0], opts.Args[1:]...)
	cmd.Dir = opts.Dir

	p := &Process{name: name, cmd: cmd, done: make(chan struct{})}

	var pr *io.PipeReader
	switch {
	case opts.UseStdin:
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	case opts.StreamStdout:
		pr, p.pw = io.Pipe()
		cmd.Stdout = p.pw
		cmd.Stderr = p.pw
	default:
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	r.mu.Lock()
	if r.stopped || r.closed {
		r.mu.Unlock()
		if p.pw != nil {
			_ = p.pw.Close()
		}
		return nil, ErrRunnerClosed
	}
	if err := cmd.Start(); err != nil {
		r.mu.Unlock()
		if p.pw != nil {
			_ = p.pw.Close()
		}
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	r.procs = append(r.procs, p)
	r.wg.Add(1)
	if pr != nil {
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if pr != nil {
		// Drain goroutine: exits on EOF once the reaper closes the write end.
		go func() {
			defer r.wg.Done()
			scanner := bufio.NewScanner(pr)
			for scanner.Scan() {
				if r.sink != nil {
					r.sink.WriteLine(name, scanner.Text())
				}
			}
			_ = pr.Close()
		}()
	}

	// Reaper: record the exit result before closing done, so Wait observes
	// a committed value.
	go func() {
		defer r.wg.Done()
		err := cmd.Wait()
		if p.pw != nil {
			_ = p.pw.Close()
		}
		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()
		close(p.done)
		if err != nil && !opts.Daemon {
			r.RequestStop()
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			p.terminate()
		case <-p.done:
		}
	}()

	return p, nil
}

// RequestStop signals every live process to terminate gracefully. Idempotent.
func (r *Runner) RequestStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	for _, p := range r.procs {
		p.terminate()
	}
}

// Close requests a stop and waits for all supervised processes to exit,
// killing any that do not stop within the grace period. Idempotent.
func (r *Runner) Close() error {
	r.RequestStop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		r.mu.Lock()
		for _, p := range r.procs {
			p.kill()
		}
		r.mu.Unlock()
		<-done
	}

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}
