// Package config handles kill switch configuration loading, saving, and validation.
package config

import "time"

// DefaultPath is where the configuration file is looked up when --config is not given.
const DefaultPath = "/etc/killswitch/config.yaml"

// Strategy names accepted in detection.strategies.
const (
	StrategyRoutingTable = "routing-table"
	StrategyNetstat      = "netstat"
	StrategyScutil       = "scutil"
	StrategyWireGuard    = "wireguard"
	StrategyIfconfig     = "ifconfig"
)

// Config represents the main configuration structure.
type Config struct {
	Version    int              `yaml:"version"`
	KillSwitch KillSwitchConfig `yaml:"killswitch"`
	Paths      Paths            `yaml:"paths"`
	Detection  Detection        `yaml:"detection"`
	Whoami     Whoami           `yaml:"whoami"`
	Log        Log              `yaml:"log"`
	Elevate    Elevate          `yaml:"elevate"`
}

// KillSwitchConfig holds the rule options that CLI flags may override.
type KillSwitchConfig struct {
	Leak       bool   `yaml:"leak"`        // allow DNS and ICMP echo outside the tunnel
	AllowLocal bool   `yaml:"allow_local"` // allow traffic within each physical subnet
	IPv4       string `yaml:"ipv4"`        // fixed VPN peer, skips detection
}

// Paths of the files the firewall controller touches.
type Paths struct {
	Rules      string `yaml:"rules"`
	SystemConf string `yaml:"system_conf"`
}

// Detection configures the gateway detector.
type Detection struct {
	Strategies     []string `yaml:"strategies"`
	TunnelPrefixes []string `yaml:"tunnel_prefixes"`
}

// Whoami configures the public IP lookup shown in the interface report.
type Whoami struct {
	DNSServer string   `yaml:"dns_server"`
	DNSName   string   `yaml:"dns_name"`
	URLs      []string `yaml:"urls"`
	Timeout   int      `yaml:"timeout"` // seconds
}

// TimeoutDuration returns Timeout as a time.Duration.
func (w Whoami) TimeoutDuration() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

// Log configuration.
type Log struct {
	File string `yaml:"file,omitempty"`
}

// Elevate configures privilege escalation.
type Elevate struct {
	Auto bool `yaml:"auto"` // re-exec through sudo instead of failing
}

// DefaultStrategies is the detection order, most trustworthy first.
func DefaultStrategies() []string {
	return []string{
		StrategyRoutingTable,
		StrategyNetstat,
		StrategyScutil,
		StrategyWireGuard,
		StrategyIfconfig,
	}
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Paths: Paths{
			Rules:      "/tmp/killswitch.pf.conf",
			SystemConf: "/etc/pf.conf",
		},
		Detection: Detection{
			Strategies:     DefaultStrategies(),
			TunnelPrefixes: []string{"utun", "tun", "ppp"},
		},
		Whoami: Whoami{
			DNSServer: "ns1.google.com:53",
			DNSName:   "o-o.myaddr.l.google.com",
			URLs: []string{
				"https://checkip.amazonaws.com",
				"https://myip.country/ip",
				"https://trackip.net/ip",
			},
			Timeout: 5,
		},
	}
}
