// Package core ties gateway detection, rule generation and pf control
// together into the kill switch operations.
package core

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/user/killswitch/internal/config"
	"github.com/user/killswitch/internal/elevate"
	"github.com/user/killswitch/internal/gateway"
	"github.com/user/killswitch/internal/killswitch"
	"github.com/user/killswitch/internal/logger"
	"github.com/user/killswitch/internal/netif"
	"github.com/user/killswitch/internal/procutil"
	"github.com/user/killswitch/internal/routing"
	"github.com/user/killswitch/internal/rules"
	"github.com/user/killswitch/internal/whoami"
)

// Request carries the per-invocation rule options.
type Request struct {
	// IPv4 is the VPN peer given by the user. Empty runs detection.
	IPv4       string
	Leak       bool
	AllowLocal bool
}

// Service is the kill switch service.
type Service struct {
	cfg        *config.Config
	enumerator *netif.Enumerator
	detector   *gateway.Detector
	killSwitch *killswitch.KillSwitch
	opts       options
}

type options struct {
	runner         procutil.Runner
	fetchRIB       func() ([]byte, error)
	openWireGuard  func() (gateway.DeviceLister, error)
	isAdmin        func() bool
	now            func() time.Time
	publicIP       func(ctx context.Context) (netip.Addr, error)
	defaultGateway func() (netip.Addr, error)
}

// Option customizes how the Service reaches the host.
type Option func(*options)

// WithRunner sets the command runner used for ifconfig, netstat, scutil and pfctl.
func WithRunner(r procutil.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithRouteDump replaces the kernel route dump.
func WithRouteDump(fetch func() ([]byte, error)) Option {
	return func(o *options) { o.fetchRIB = fetch }
}

// WithWireGuard replaces the WireGuard device listing.
func WithWireGuard(open func() (gateway.DeviceLister, error)) Option {
	return func(o *options) { o.openWireGuard = open }
}

// WithPrivilegeCheck replaces the root check.
func WithPrivilegeCheck(isAdmin func() bool) Option {
	return func(o *options) { o.isAdmin = isAdmin }
}

// WithClock sets the time source stamped into generated rules.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublicIP replaces the public IP lookup used by the interface report.
func WithPublicIP(lookup func(ctx context.Context) (netip.Addr, error)) Option {
	return func(o *options) { o.publicIP = lookup }
}

// WithDefaultGateway replaces the default gateway lookup used by the report.
func WithDefaultGateway(lookup func() (netip.Addr, error)) Option {
	return func(o *options) { o.defaultGateway = lookup }
}

// NewService creates a Service from validated configuration.
func NewService(cfg *config.Config, opts ...Option) (*Service, error) {
	o := options{
		runner:         procutil.DefaultRunner,
		isAdmin:        elevate.IsAdmin,
		now:            time.Now,
		publicIP:       whoami.New(cfg.Whoami).PublicIP,
		defaultGateway: routing.DefaultGateway,
	}
	for _, opt := range opts {
		opt(&o)
	}

	strategies, err := gateway.Build(cfg.Detection.Strategies, gateway.Env{
		Runner:         o.runner,
		FetchRIB:       o.fetchRIB,
		OpenWireGuard:  o.openWireGuard,
		TunnelPrefixes: cfg.Detection.TunnelPrefixes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up detection: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		enumerator: netif.NewEnumerator(o.runner),
		detector:   gateway.NewDetector(strategies...),
		killSwitch: killswitch.New(o.runner, killswitch.Paths{
			Rules:      cfg.Paths.Rules,
			SystemConf: cfg.Paths.SystemConf,
		}),
		opts: o,
	}
	logger.Debug("detection order: %v", s.detector.Strategies())
	return s, nil
}

// ResolveEndpoint returns the VPN peer: the one in req when set, otherwise
// the detected one.
func (s *Service) ResolveEndpoint(req Request) (gateway.Candidate, error) {
	if req.IPv4 != "" {
		addr, err := gateway.ParseEndpoint(req.IPv4)
		if err != nil {
			return gateway.Candidate{}, err
		}
		logger.Debug("using provided VPN gateway: %s", addr)
		return gateway.Candidate{Addr: addr, Strategy: "manual"}, nil
	}

	logger.Info("auto-detecting VPN gateway address...")
	c, err := s.detector.Detect()
	if err != nil {
		return gateway.Candidate{}, err
	}
	if c.TunnelPeer {
		logger.Warning("%s is the tunnel peer, not a route to the VPN server; the tunnel may not survive reconnects. Use --ipv4 to set the server address", c.Addr)
	}
	return c, nil
}

// GenerateRules resolves the endpoint and renders the ruleset without
// touching pf.
func (s *Service) GenerateRules(req Request) (string, error) {
	endpoint, err := s.ResolveEndpoint(req)
	if err != nil {
		return "", err
	}

	ifaces, err := s.enumerator.Enumerate()
	if err != nil {
		return "", err
	}
	if len(netif.Tunnels(ifaces)) == 0 {
		logger.Warning("no VPN interface found, verify VPN is connected")
	}

	logger.Debug("generating rules for %d interfaces, gateway %s", len(ifaces), endpoint.Addr)
	return rules.Generate(ifaces, endpoint.Addr.String(), rules.Options{
		Leak:       req.Leak,
		AllowLocal: req.AllowLocal,
		RulesPath:  s.cfg.Paths.Rules,
		Now:        s.opts.now,
	})
}

// Enable loads the kill switch rules.
func (s *Service) Enable(req Request) error {
	if err := elevate.Require(s.opts.isAdmin); err != nil {
		return err
	}

	ruleset, err := s.GenerateRules(req)
	if err != nil {
		return err
	}

	logger.Debug("applying rules to pf...")
	return s.killSwitch.Apply(ruleset)
}

// Disable restores the system pf rules.
func (s *Service) Disable() error {
	if err := elevate.Require(s.opts.isAdmin); err != nil {
		return err
	}
	return s.killSwitch.Disable()
}

// Status queries pf for the kill switch state.
func (s *Service) Status() (*killswitch.Status, error) {
	return s.killSwitch.Status()
}

// RulesPath returns the file the generated rules are loaded from.
func (s *Service) RulesPath() string {
	return s.killSwitch.Paths().Rules
}
