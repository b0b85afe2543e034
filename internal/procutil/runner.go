// Package procutil wraps external command execution.
package procutil

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands and returns their standard output.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
}

// CommandError is returned when a command could not be started or exited
// non-zero. Stderr holds the command's diagnostic output verbatim.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	cmd := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", cmd, e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: %v", cmd, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Stderr extracts the diagnostic output carried by err, if any.
func Stderr(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

// Output runs name with args. stdout and stderr are captured separately.
func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout.Bytes(), &CommandError{
			Name:     name,
			Args:     args,
			ExitCode: code,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}

// DefaultRunner is used when callers do not supply their own Runner.
var DefaultRunner Runner = ExecRunner{}
