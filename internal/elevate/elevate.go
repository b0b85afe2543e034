// Package elevate checks for and acquires root privileges.
package elevate

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// PrivilegeError is returned when an operation needs root and the process
// does not have it.
type PrivilegeError struct {
	Hint string
}

func (e *PrivilegeError) Error() string {
	return "this operation requires root privileges. Try: " + e.Hint
}

// IsAdmin returns true if the current process is running as root.
func IsAdmin() bool {
	return os.Geteuid() == 0
}

// Require returns a *PrivilegeError unless isAdmin reports root.
// A nil isAdmin uses IsAdmin.
func Require(isAdmin func() bool) error {
	if isAdmin == nil {
		isAdmin = IsAdmin
	}
	if isAdmin() {
		return nil
	}
	return &PrivilegeError{Hint: "sudo killswitch"}
}

// RunAsAdmin replaces the current process with itself run through sudo.
// It only returns on failure.
func RunAsAdmin() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	sudoPath, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("sudo not found; please run as root")
	}

	args := append([]string{"sudo", exe}, os.Args[1:]...)
	return syscall.Exec(sudoPath, args, os.Environ())
}
