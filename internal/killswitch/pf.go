package killswitch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/user/killswitch/internal/logger"
	"github.com/user/killswitch/internal/procutil"
)

// legacyMarker tags lines an old release inserted into the system pf.conf.
const legacyMarker = "killswitch"

// Apply writes ruleset to the rules file, enables pf and loads the file,
// flushing whatever was active. Applying twice is harmless.
func (k *KillSwitch) Apply(ruleset string) error {
	if err := os.WriteFile(k.paths.Rules, []byte(ruleset), 0600); err != nil {
		return &ApplyError{Op: "failed to write rules", Err: err}
	}
	logger.Debug("rules written to %s", k.paths.Rules)

	if err := k.enablePF(); err != nil {
		return &ApplyError{Op: "failed to enable pf", Diagnostic: procutil.Stderr(err), Err: err}
	}

	if _, err := k.runner.Output("pfctl", "-Fa", "-f", k.paths.Rules); err != nil {
		return &ApplyError{Op: "failed to load rules", Diagnostic: procutil.Stderr(err), Err: err}
	}

	logger.Info("kill switch rules loaded from %s", k.paths.Rules)
	return nil
}

// Disable restores the system ruleset and removes the rules file.
func (k *KillSwitch) Disable() error {
	if err := k.cleanupLegacy(); err != nil {
		return &RestoreError{Op: "failed to clean " + k.paths.SystemConf, Err: err}
	}

	if err := k.enablePF(); err != nil {
		return &RestoreError{Op: "failed to enable pf", Diagnostic: procutil.Stderr(err), Err: err}
	}

	if _, err := k.runner.Output("pfctl", "-Fa", "-f", k.paths.SystemConf); err != nil {
		return &RestoreError{Op: "failed to restore system rules", Diagnostic: procutil.Stderr(err), Err: err}
	}

	if err := os.Remove(k.paths.Rules); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &RestoreError{Op: "failed to remove rules file", Err: err}
	}

	logger.Info("system rules restored from %s", k.paths.SystemConf)
	return nil
}

// Status reports ENABLED when the rules file exists and pf has at least one
// active rule.
func (k *KillSwitch) Status() (*Status, error) {
	out, err := k.runner.Output("pfctl", "-sr")
	if err != nil {
		diag := procutil.Stderr(err)
		if diag == "" {
			diag = err.Error()
		}
		return nil, fmt.Errorf("failed to get status: %s", strings.TrimSpace(diag))
	}

	if _, err := os.Stat(k.paths.Rules); err != nil {
		return &Status{}, nil
	}

	dump := string(out)
	for _, line := range strings.Split(dump, "\n") {
		if strings.TrimSpace(line) != "" && !strings.Contains(line, "ALTQ") {
			return &Status{Enabled: true, Rules: dump}, nil
		}
	}
	return &Status{}, nil
}

// enablePF turns pf on. pf already being on is not an error.
func (k *KillSwitch) enablePF() error {
	_, err := k.runner.Output("pfctl", "-e")
	if err != nil && strings.Contains(procutil.Stderr(err), "already enabled") {
		logger.Debug("pf already enabled")
		return nil
	}
	return err
}

// cleanupLegacy removes every line containing the legacy marker from the
// system pf.conf. The file is left untouched when the marker is absent.
// Any line mentioning the marker is removed, including ones an
// administrator wrote.
func (k *KillSwitch) cleanupLegacy() error {
	data, err := os.ReadFile(k.paths.SystemConf)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", k.paths.SystemConf, err)
	}
	content := string(data)
	if !strings.Contains(content, legacyMarker) {
		return nil
	}

	var kept []string
	for _, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		if !strings.Contains(line, legacyMarker) {
			kept = append(kept, line)
		}
	}

	info, err := os.Stat(k.paths.SystemConf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(k.paths.SystemConf, []byte(strings.Join(kept, "\n")+"\n"), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", k.paths.SystemConf, err)
	}
	logger.Warning("removed legacy killswitch lines from %s", k.paths.SystemConf)
	return nil
}
