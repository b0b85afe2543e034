package config

import (
	"fmt"
	"net/netip"
	"net/url"
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Version < 1 {
		return fmt.Errorf("invalid config version")
	}

	if err := c.KillSwitch.Validate(); err != nil {
		return fmt.Errorf("killswitch config: %w", err)
	}

	if err := c.Paths.Validate(); err != nil {
		return fmt.Errorf("paths config: %w", err)
	}

	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection config: %w", err)
	}

	if err := c.Whoami.Validate(); err != nil {
		return fmt.Errorf("whoami config: %w", err)
	}

	return nil
}

// Validate checks that a configured peer is at least an IP literal. Range
// checks happen where the peer is used so that flags and file share them.
func (k *KillSwitchConfig) Validate() error {
	if k.IPv4 == "" {
		return nil
	}
	if _, err := netip.ParseAddr(k.IPv4); err != nil {
		return fmt.Errorf("invalid ipv4: %s", k.IPv4)
	}
	return nil
}

// Validate validates file paths.
func (p *Paths) Validate() error {
	if p.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if p.SystemConf == "" {
		return fmt.Errorf("system_conf is required")
	}
	if p.Rules == p.SystemConf {
		return fmt.Errorf("rules and system_conf must differ")
	}
	return nil
}

// Validate validates the detection strategy list.
func (d *Detection) Validate() error {
	seen := make(map[string]bool, len(d.Strategies))
	for _, name := range d.Strategies {
		switch name {
		case StrategyRoutingTable, StrategyNetstat, StrategyScutil, StrategyWireGuard, StrategyIfconfig:
		default:
			return fmt.Errorf("unknown strategy: %s", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate strategy: %s", name)
		}
		seen[name] = true
	}
	for _, p := range d.TunnelPrefixes {
		if p == "" {
			return fmt.Errorf("tunnel_prefixes cannot contain an empty prefix")
		}
	}
	return nil
}

// Validate validates public IP lookup settings.
func (w *Whoami) Validate() error {
	if w.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	for _, u := range w.URLs {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("invalid url: %s", u)
		}
	}
	return nil
}
