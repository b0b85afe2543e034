// Package whoami finds the address the host appears from on the internet.
package whoami

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/user/killswitch/internal/config"
	"github.com/user/killswitch/internal/logger"
)

// ErrNotFound is returned when every lookup failed.
var ErrNotFound = errors.New("could not find public IP")

const defaultTimeout = 5 * time.Second

// Resolver looks up the public IP, first with a TXT query answered with the
// client's address, then through plain-text HTTP services.
type Resolver struct {
	DNSServer string
	DNSName   string
	URLs      []string
	Timeout   time.Duration

	HTTPClient *http.Client
}

// New creates a Resolver from configuration.
func New(cfg config.Whoami) *Resolver {
	return &Resolver{
		DNSServer: cfg.DNSServer,
		DNSName:   cfg.DNSName,
		URLs:      cfg.URLs,
		Timeout:   cfg.TimeoutDuration(),
	}
}

// PublicIP returns the first address any source reports.
func (r *Resolver) PublicIP(ctx context.Context) (netip.Addr, error) {
	if r.DNSServer != "" && r.DNSName != "" {
		addr, err := r.lookupDNS(ctx)
		if err == nil {
			return addr, nil
		}
		logger.Debug("whoami: dns %s: %v", r.DNSServer, err)
	}

	for _, u := range r.URLs {
		addr, err := r.lookupHTTP(ctx, u)
		if err == nil {
			return addr, nil
		}
		logger.Debug("whoami: %s: %v", u, err)
	}
	return netip.Addr{}, ErrNotFound
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return defaultTimeout
}

func (r *Resolver) lookupDNS(ctx context.Context) (netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	c := &dns.Client{Net: "udp", Timeout: r.timeout()}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(r.DNSName), dns.TypeTXT)

	resp, _, err := c.ExchangeContext(ctx, m, r.DNSServer)
	if err != nil {
		return netip.Addr{}, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("rcode %s", dns.RcodeToString[resp.Rcode])
	}

	for _, ans := range resp.Answer {
		txt, ok := ans.(*dns.TXT)
		if !ok {
			continue
		}
		for _, s := range txt.Txt {
			if addr, err := netip.ParseAddr(strings.TrimSpace(s)); err == nil {
				return addr, nil
			}
		}
	}
	return netip.Addr{}, fmt.Errorf("no address in %d answers", len(resp.Answer))
}

func (r *Resolver) lookupHTTP(ctx context.Context, url string) (netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return netip.Addr{}, err
	}
	req.Header.Set("User-Agent", "killswitch")

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return netip.Addr{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.ParseAddr(strings.TrimSpace(string(body)))
}
