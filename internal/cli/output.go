package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/user/killswitch/internal/core"
	"github.com/user/killswitch/internal/logger"
	"github.com/user/killswitch/internal/rules"
)

func printReport(w io.Writer, r *core.Report) {
	fmt.Fprintln(w, "Interface  MAC address         IP")
	for _, i := range r.Interfaces {
		fmt.Fprintf(w, "%-10s %-19s %s\n", i.Name, i.MAC, i.IP)
	}

	if r.PublicIP.IsValid() {
		fmt.Fprintf(w, "\nPublic IP address: %s\n", color.RedString(r.PublicIP.String()))
	}
	if r.DefaultGateway.IsValid() {
		fmt.Fprintf(w, "Default gateway:   %s\n", r.DefaultGateway)
	}

	switch {
	case r.Peer.IsValid():
		fmt.Fprintf(w, "PEER IP address:   %s\n", color.YellowString(r.Peer.String()))
	case !r.HasTunnel:
		fmt.Fprintln(w, "\nNo VPN interface found, verify VPN is connected")
	}

	fmt.Fprintln(w, "\nTo enable the kill switch run: sudo killswitch -e")
	fmt.Fprintln(w, "To disable:                    sudo killswitch -d")
}

// printDiff shows how ruleset differs from the rules file on disk, ignoring
// the timestamped header. A file that is missing or unreadable without root
// is compared as empty.
func printDiff(w io.Writer, path, ruleset string, readFile func(string) ([]byte, error)) error {
	current, err := readFile(path)
	switch {
	case errors.Is(err, fs.ErrPermission):
		logger.Warning("cannot read %s, comparing against an empty ruleset; run with sudo to compare against the loaded rules", path)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(rules.StripHeader(string(current))),
		B:        splitLines(rules.StripHeader(ruleset)),
		FromFile: path,
		ToFile:   "generated",
		Context:  3,
	})
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintf(w, "No changes to %s\n", path)
		return nil
	}
	fmt.Fprint(w, diff)
	return nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(strings.TrimSuffix(s, "\n"))
}

// userMessage renders err as a sentence for the terminal.
func userMessage(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
