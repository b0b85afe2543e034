// Package killswitch loads and removes the pf ruleset that blocks traffic
// outside the VPN tunnel.
package killswitch

import (
	"fmt"
	"strings"

	"github.com/user/killswitch/internal/procutil"
	"github.com/user/killswitch/internal/rules"
)

// DefaultSystemConf is the ruleset pf is restored to on disable.
const DefaultSystemConf = "/etc/pf.conf"

// Paths are the files the kill switch reads and writes.
type Paths struct {
	Rules      string
	SystemConf string
}

// DefaultPaths returns the standard macOS locations.
func DefaultPaths() Paths {
	return Paths{Rules: rules.DefaultPath, SystemConf: DefaultSystemConf}
}

// ApplyError is returned when the generated rules could not be loaded.
// Diagnostic holds pfctl's stderr verbatim.
type ApplyError struct {
	Op         string
	Diagnostic string
	Err        error
}

func (e *ApplyError) Error() string {
	return formatPFError(e.Op, e.Diagnostic, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// RestoreError is returned when the system ruleset could not be restored.
type RestoreError struct {
	Op         string
	Diagnostic string
	Err        error
}

func (e *RestoreError) Error() string {
	return formatPFError(e.Op, e.Diagnostic, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

func formatPFError(op, diagnostic string, err error) string {
	if d := strings.TrimSpace(diagnostic); d != "" {
		return fmt.Sprintf("%s: %s", op, d)
	}
	return fmt.Sprintf("%s: %v", op, err)
}

// Status is the kill switch state as reported by pf.
type Status struct {
	Enabled bool
	Rules   string
}

func (s *Status) String() string {
	if s.Enabled {
		return "VPN kill switch: ENABLED\n\n" + s.Rules
	}
	return "VPN kill switch: DISABLED"
}

// KillSwitch manages the pf ruleset. It keeps no state of its own: every
// query goes to pfctl and the file system.
type KillSwitch struct {
	runner procutil.Runner
	paths  Paths
}

// New creates a kill switch. A nil runner uses procutil.DefaultRunner and
// empty paths take their defaults.
func New(runner procutil.Runner, paths Paths) *KillSwitch {
	if runner == nil {
		runner = procutil.DefaultRunner
	}
	def := DefaultPaths()
	if paths.Rules == "" {
		paths.Rules = def.Rules
	}
	if paths.SystemConf == "" {
		paths.SystemConf = def.SystemConf
	}
	return &KillSwitch{runner: runner, paths: paths}
}

// Paths returns the files in use.
func (k *KillSwitch) Paths() Paths {
	return k.paths
}
