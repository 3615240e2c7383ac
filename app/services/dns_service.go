package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linkforge/linkforge/config"
	"github.com/miekg/dns"
)

// ErrDNSUnavailable marks a resolver transport failure. The caller keeps
// its cached probe untouched and offers manual retry.
var ErrDNSUnavailable = errors.New("dns resolver unavailable")

// DNSProbeResult is the advisory outcome of one DNS check
type DNSProbeResult struct {
	Configured bool
	Message    string
	Addresses  []string
}

// DNSService checks whether a domain's A records point at the platform's
// ingress addresses. Advisory only; never a gate on activation.
type DNSService interface {
	Probe(ctx context.Context, domain string) (*DNSProbeResult, error)
}

// DNSServiceImpl implements DNSService with a direct resolver exchange
type DNSServiceImpl struct {
	config *config.DNSConfig
	client *dns.Client
}

// NewDNSService creates a new DNS probe service
func NewDNSService(cfg *config.DNSConfig) DNSService {
	client := &dns.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &DNSServiceImpl{
		config: cfg,
		client: client,
	}
}

// Probe resolves the domain's A records and compares them against the
// configured ingress addresses.
func (s *DNSServiceImpl) Probe(ctx context.Context, domain string) (*DNSProbeResult, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := s.client.ExchangeContext(ctx, msg, s.config.Resolver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDNSUnavailable, err)
	}

	if resp.Rcode == dns.RcodeNameError {
		return &DNSProbeResult{
			Configured: false,
			Message:    fmt.Sprintf("no DNS records found for %s", domain),
		}, nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: rcode %s", ErrDNSUnavailable, dns.RcodeToString[resp.Rcode])
	}

	var addresses []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			addresses = append(addresses, a.A.String())
		}
	}

	if len(addresses) == 0 {
		return &DNSProbeResult{
			Configured: false,
			Message:    fmt.Sprintf("%s has no A records", domain),
		}, nil
	}

	for _, addr := range addresses {
		for _, ingress := range s.config.IngressAddresses {
			if addr == ingress {
				return &DNSProbeResult{
					Configured: true,
					Message:    fmt.Sprintf("%s points at platform ingress %s", domain, addr),
					Addresses:  addresses,
				}, nil
			}
		}
	}

	return &DNSProbeResult{
		Configured: false,
		Message: fmt.Sprintf("%s resolves to %s, expected one of %s",
			domain, strings.Join(addresses, ", "), strings.Join(s.config.IngressAddresses, ", ")),
		Addresses: addresses,
	}, nil
}
