package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Outcome classifies a finished RunResult.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeNotLaunched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeNotLaunched:
		return "not launched"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Command is one external program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// RunResult holds everything captured from a finished command.
// Err is set only when the process could not be started.
type RunResult struct {
	Command  Command
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
}

func (r RunResult) Outcome() Outcome {
	if r.Err != nil {
		return OutcomeNotLaunched
	}
	if r.ExitCode != 0 {
		return OutcomeFailed
	}
	return OutcomeSucceeded
}

func (r RunResult) OK() bool {
	return r.Outcome() == OutcomeSucceeded
}

// Echo writes the captured stdout followed by stderr, or a diagnostic if
// the command never ran.
func (r RunResult) Echo(w io.Writer) {
	if r.Err != nil {
		fmt.Fprintf(w, "failed to execute %q: %v\n", r.Command.String(), r.Err)
		return
	}
	if len(r.Stdout) > 0 {
		_, _ = w.Write(r.Stdout)
	}
	if len(r.Stderr) > 0 {
		_, _ = w.Write(r.Stderr)
	}
}

// Runner executes a command to completion.
type Runner interface {
	Run(ctx context.Context, c Command) RunResult
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) RunResult {
	res := RunResult{Command: c}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// -1 when killed by a signal
		res.ExitCode = exitErr.ExitCode()
	default:
		res.Err = err
	}
	return res
}
