// Package entrypoint sequences container startup: named setup steps run in
// order, the web server and bot are supervised as children, and any trailing
// arguments run as a final passthrough command whose exit code becomes ours.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ShutdownTimeout is the grace period before forcing child exit.
const ShutdownTimeout = 10 * time.Second

// Step is one named setup command run before the services start.
type Step struct {
	Name string
	Args []string
}

// Child is one long-running service launched after the steps.
type Child struct {
	Name string
	Args []string
}

// Config describes a full startup sequence.
type Config struct {
	Steps       []Step
	Children    []Child
	Passthrough []string
	Logger      *log.Logger
}

// childProcess describes a managed child command.
type childProcess struct {
	name string
	cmd  *exec.Cmd
}

// processExit reports a child process exit result.
type processExit struct {
	name string
	err  error
}

// Run executes the startup sequence and blocks until a signal arrives, a
// supervised child exits, or the passthrough command finishes. The returned
// code is the passthrough exit code when one ran, otherwise the first child's.
func Run(ctx context.Context, cfg Config) int {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	// Setup steps never halt the sequence: a failure is logged and the next
	// step still runs, so the services always get their chance to start.
	for _, step := range cfg.Steps {
		runStep(ctx, logger, step)
	}

	// Children use plain commands, not CommandContext: signal handling stays
	// with the supervisor so terminateChildren can deliver SIGTERM first.
	var children []*childProcess
	for _, child := range cfg.Children {
		started, err := startChild(child.Name, command(child.Args))
		if err != nil {
			logger.Printf("start %s: %v", child.Name, err)
			continue
		}
		logger.Printf("%s started (pid %d)", child.Name, started.cmd.Process.Pid)
		children = append(children, started)
	}

	if len(cfg.Passthrough) > 0 {
		passthrough, err := startChild("passthrough", command(cfg.Passthrough))
		if err != nil {
			logger.Printf("start passthrough: %v", err)
			terminateChildren(children)
			drainChildren(children, ShutdownTimeout)
			return 1
		}
		children = append(children, passthrough)
	}

	if len(children) == 0 {
		logger.Printf("nothing to supervise")
		return 0
	}

	exitCh := make(chan processExit, len(children))
	for _, child := range children {
		go waitChild(child, exitCh)
	}

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
		terminateChildren(children)
		waitForChildren(exitCh, len(children), ShutdownTimeout, children)
		return 0
	case exit := <-exitCh:
		logger.Printf("%s exited: %v", exit.name, exit.err)
		terminateChildren(children)
		waitForChildren(exitCh, len(children)-1, ShutdownTimeout, children)
		return exitCode(exit.err)
	}
}

// runStep runs one setup command to completion and logs its outcome on every
// exit path. Failures are reported, never propagated.
func runStep(ctx context.Context, logger *log.Logger, step Step) {
	if len(step.Args) == 0 {
		logger.Printf("step %s skipped: no command", step.Name)
		return
	}
	start := time.Now()
	logger.Printf("step %s starting", step.Name)

	cmd := exec.CommandContext(ctx, step.Args[0], step.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Printf("step %s failed after %s: %v", step.Name, elapsed, err)
		return
	}
	logger.Printf("step %s completed in %s", step.Name, elapsed)
}

func command(args []string) *exec.Cmd {
	return exec.Command(args[0], args[1:]...)
}

// startChild starts a child process with inherited stdio streams.
func startChild(name string, cmd *exec.Cmd) (*childProcess, error) {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return &childProcess{name: name, cmd: cmd}, nil
}

// waitChild waits for a child process and reports its exit.
func waitChild(child *childProcess, exitCh chan<- processExit) {
	err := child.cmd.Wait()
	exitCh <- processExit{name: child.name, err: err}
}

// terminateChildren sends SIGTERM to all child processes.
func terminateChildren(children []*childProcess) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		_ = child.cmd.Process.Signal(syscall.SIGTERM)
	}
}

// waitForChildren waits for the remaining exits or forces shutdown.
func waitForChildren(exitCh <-chan processExit, remaining int, timeout time.Duration, children []*childProcess) {
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for remaining > 0 {
		select {
		case <-exitCh:
			remaining--
		case <-timer.C:
			forceKill(children)
			return
		}
	}
}

// drainChildren reaps already-terminated children without an exit channel.
func drainChildren(children []*childProcess, timeout time.Duration) {
	exitCh := make(chan processExit, len(children))
	for _, child := range children {
		go waitChild(child, exitCh)
	}
	waitForChildren(exitCh, len(children), timeout, children)
}

// forceKill sends SIGKILL to any child still running.
func forceKill(children []*childProcess) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		if child.cmd.ProcessState != nil {
			continue
		}
		_ = child.cmd.Process.Kill()
	}
}

// exitCode derives a process exit code from a wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
