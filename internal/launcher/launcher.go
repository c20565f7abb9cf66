package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// ErrEmptyCommand indicates an argv without a program.
var ErrEmptyCommand = errors.New("empty command")

// Exec starts the client as a detached process.
type Exec struct {
	logger *slog.Logger
}

// NewExec creates an Exec launcher.
func NewExec(logger *slog.Logger) *Exec {
	return &Exec{logger: logger}
}

// Launch starts argv and returns without waiting for it to exit.
func (e *Exec) Launch(ctx context.Context, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrEmptyCommand
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("finding %s: %w", argv[0], err)
	}

	// Not bound to ctx: the client outlives the request that opened it.
	cmd := exec.Command(path, argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", argv[0], err)
	}
	if e.logger != nil {
		e.logger.Debug("client started", "command", argv[0], "pid", cmd.Process.Pid)
	}
	return cmd.Process.Release()
}

// DryRun records argv instead of executing it, and optionally prints it
// with the password masked.
type DryRun struct {
	out io.Writer

	mu    sync.Mutex
	calls [][]string
}

// NewDryRun creates a DryRun launcher printing to out (may be nil).
func NewDryRun(out io.Writer) *DryRun {
	return &DryRun{out: out}
}

// Launch records argv.
func (d *DryRun) Launch(ctx context.Context, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrEmptyCommand
	}

	d.mu.Lock()
	d.calls = append(d.calls, append([]string(nil), argv...))
	d.mu.Unlock()

	if d.out != nil {
		_, err := fmt.Fprintln(d.out, strings.Join(Mask(argv), " "))
		return err
	}
	return nil
}

// Calls returns the recorded command lines.
func (d *DryRun) Calls() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// Mask returns a copy of argv with the value after -pw replaced.
func Mask(argv []string) []string {
	out := append([]string(nil), argv...)
	for i := 0; i+1 < len(out); i++ {
		if out[i] == "-pw" {
			out[i+1] = "******"
		}
	}
	return out
}
