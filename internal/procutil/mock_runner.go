package procutil

import (
	"github.com/stretchr/testify/mock"
)

// MockRunner is a testify mock of Runner. Expectations are registered under
// the command name, e.g. m.On("pfctl", "-e"). It lives outside _test.go so
// tests in other packages can share it.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Output(name string, args ...string) ([]byte, error) {
	callArgs := make([]interface{}, len(args))
	for i, a := range args {
		callArgs[i] = a
	}
	result := m.MethodCalled(name, callArgs...)
	if result.Get(0) == nil {
		return nil, result.Error(1)
	}
	return result.Get(0).([]byte), result.Error(1)
}

// Invoked reports whether name was invoked with at least the given leading args.
func (m *MockRunner) Invoked(name string, args ...string) bool {
	for _, call := range m.Calls {
		if call.Method != name || len(call.Arguments) < len(args) {
			continue
		}
		match := true
		for i, a := range args {
			if call.Arguments[i] != a {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Fail builds the error a command exiting non-zero with stderr would return.
func Fail(name, stderr string, args ...string) error {
	return &CommandError{
		Name:     name,
		Args:     args,
		ExitCode: 1,
		Stderr:   stderr,
		Err:      errExit1,
	}
}

type exitStatus string

func (e exitStatus) Error() string { return string(e) }

const errExit1 = exitStatus("exit status 1")
