// Package cli implements the killswitch command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/killswitch/internal/config"
	"github.com/user/killswitch/internal/core"
	"github.com/user/killswitch/internal/elevate"
	"github.com/user/killswitch/internal/logger"
)

type flags struct {
	enable     bool
	disable    bool
	status     bool
	print      bool
	diff       bool
	ipv4       string
	leak       bool
	local      bool
	verbose    int
	configPath string
	initConfig bool
}

// NewCommand builds the root command. opts are passed to core.NewService.
func NewCommand(version string, opts ...core.Option) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "killswitch",
		Short: "VPN kill switch for macOS pf",
		Long: `killswitch blocks all traffic that does not go through the VPN tunnel.

Without flags it lists the active interfaces, the public IP address and the
detected VPN peer.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, opts)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&f.enable, "enable", "e", false, "enable the kill switch")
	fs.BoolVarP(&f.disable, "disable", "d", false, "disable the kill switch and restore /etc/pf.conf")
	fs.BoolVarP(&f.status, "status", "s", false, "show the kill switch status")
	fs.BoolVarP(&f.print, "print", "p", false, "print the rules without applying them")
	fs.BoolVar(&f.diff, "diff", false, "with --print, show changes against the loaded rules file")
	fs.StringVar(&f.ipv4, "ipv4", "", "VPN peer IPv4 address, skips auto-detection")
	fs.BoolVar(&f.leak, "leak", false, "allow DNS and ping outside the VPN")
	fs.BoolVar(&f.local, "local", false, "allow traffic to the local network")
	fs.CountVarP(&f.verbose, "verbose", "v", "verbose output, repeat for debug output")
	fs.StringVarP(&f.configPath, "config", "c", config.DefaultPath, "configuration file")
	fs.BoolVar(&f.initConfig, "init-config", false, "write the effective configuration to --config and exit")

	cmd.MarkFlagsMutuallyExclusive("enable", "disable", "status", "print", "init-config")
	for _, opt := range []string{"ipv4", "leak", "local"} {
		cmd.MarkFlagsMutuallyExclusive("disable", opt)
		cmd.MarkFlagsMutuallyExclusive("status", opt)
	}

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	return execute(NewCommand(version))
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", userMessage(err))
		return 1
	}
	return 0
}

func run(cmd *cobra.Command, f *flags, opts []core.Option) error {
	if f.diff && !f.print {
		return errors.New("--diff can only be used with --print")
	}

	logOpts := logger.Options{
		Verbosity: logger.VerbosityFromCount(f.verbose),
		Writer:    cmd.ErrOrStderr(),
	}
	if err := logger.Init(logOpts); err != nil {
		return err
	}

	manager := config.NewManager(f.configPath)
	if err := manager.Load(); err != nil {
		return err
	}
	cfg := manager.Get()

	if f.initConfig {
		if err := manager.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", manager.Path())
		return nil
	}

	if cfg.Log.File != "" {
		logOpts.File = cfg.Log.File
		if err := logger.Init(logOpts); err != nil {
			return err
		}
		defer logger.Close()
		logger.Debug("logging to %s", logger.GetLogPath())
	}
	logger.Debug("configuration: %s, verbosity: %s", manager.Path(), logOpts.Verbosity)

	svc, err := core.NewService(cfg, opts...)
	if err != nil {
		return err
	}
	req := request(cmd, f, cfg)
	out := cmd.OutOrStdout()

	switch {
	case f.enable:
		if err := withElevation(cfg, svc.Enable(req)); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ VPN kill switch enabled")
	case f.disable:
		if err := withElevation(cfg, svc.Disable()); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ VPN kill switch disabled")
	case f.status:
		st, err := svc.Status()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, st.String())
	case f.print:
		ruleset, err := svc.GenerateRules(req)
		if err != nil {
			return err
		}
		if f.diff {
			return printDiff(out, svc.RulesPath(), ruleset, os.ReadFile)
		}
		fmt.Fprint(out, ruleset)
	default:
		report, err := svc.Report(context.Background())
		if err != nil {
			return err
		}
		printReport(out, report)
	}
	return nil
}

// request merges the configured rule options with the ones given on the
// command line; explicit flags win.
func request(cmd *cobra.Command, f *flags, cfg *config.Config) core.Request {
	req := core.Request{
		IPv4:       cfg.KillSwitch.IPv4,
		Leak:       cfg.KillSwitch.Leak,
		AllowLocal: cfg.KillSwitch.AllowLocal,
	}
	if cmd.Flags().Changed("ipv4") {
		req.IPv4 = f.ipv4
	}
	if cmd.Flags().Changed("leak") {
		req.Leak = f.leak
	}
	if cmd.Flags().Changed("local") {
		req.AllowLocal = f.local
	}
	return req
}

// withElevation re-executes through sudo when err is a privilege error and
// the configuration allows it.
func withElevation(cfg *config.Config, err error) error {
	var privErr *elevate.PrivilegeError
	if !errors.As(err, &privErr) || !cfg.Elevate.Auto {
		return err
	}
	logger.Info("requesting root privileges...")
	if execErr := elevate.RunAsAdmin(); execErr != nil {
		return fmt.Errorf("%w (%v)", err, execErr)
	}
	return nil
}
