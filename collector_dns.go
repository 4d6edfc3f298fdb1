/*
File: collector_dns.go
Description: Host reputation via DNS: record presence, name server and mail
             exchanger counts, and known-malicious range membership of the
             resolved addresses. Optional; unavailable lookups degrade to
             the schema's neutral defaults.
*/

package urlguard

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"
	"github.com/yl2chen/cidranger"
	"golang.org/x/time/rate"
)

// DNSCollector queries a configured resolver directly. A shared token
// bucket keeps bulk analyses from hammering the resolver.
type DNSCollector struct {
	resolver string
	client   *dns.Client
	limiter  *rate.Limiter
	ranger   cidranger.Ranger
}

func NewDNSCollector(cfg CollectorsConfig, rep ReputationConfig) *DNSCollector {
	ranger := cidranger.NewPCTrieRanger()
	for _, cidr := range rep.BlockedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			LogWarn("[DNS] Invalid blocked CIDR '%s', skipping: %v", cidr, err)
			continue
		}
		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*network)); err != nil {
			LogWarn("[DNS] Failed to index blocked CIDR '%s': %v", cidr, err)
		}
	}

	return &DNSCollector{
		resolver: cfg.DNS.Resolver,
		client:   &dns.Client{Timeout: cfg.parsedDeadline},
		limiter:  rate.NewLimiter(rate.Limit(cfg.DNS.QPS), cfg.DNS.QPS),
		ranger:   ranger,
	}
}

func (dc *DNSCollector) Name() string { return "dns" }

// Applies: DNS lookups go on the wire, so they run only under deep scan.
// IP literals still get a reputation check, so they qualify too; opaque
// schemes without a host do not.
func (dc *DNSCollector) Applies(dec *Decomposition, opts Options) bool {
	return opts.DeepScan && dec.Host != ""
}

func (dc *DNSCollector) Collect(ctx context.Context, dec *Decomposition) SignalBundle {
	features := make(map[string]float64, 5)
	var indicators []ThreatIndicator

	// IP-literal hosts skip resolution; only the range check applies.
	if dec.IsIPLiteral {
		features["has_dns_record"] = 0
		features["resolved_ip_count"] = 1
		if ip := net.ParseIP(dec.Host); ip != nil && dc.inBlockedRange(ip) {
			features["ip_reputation"] = 1
			indicators = append(indicators, ThreatIndicator{
				Kind:    IndicatorKnownMalicious,
				Message: fmt.Sprintf("address %s is inside a known-malicious range", dec.Host),
				Weight:  1.0,
			})
		}
		return SignalBundle{Status: StatusOK, Features: features, Indicators: indicators}
	}

	if err := dc.limiter.Wait(ctx); err != nil {
		return SignalBundle{Status: StatusTimeout, Err: err.Error()}
	}

	name := dns.Fqdn(dec.Host)

	addrs, err := dc.queryA(ctx, name)
	if err != nil {
		// Resolver unreachable: no signal, neutral defaults apply.
		return SignalBundle{Status: dnsStatus(ctx, err), Err: err.Error()}
	}

	if len(addrs) > 0 {
		features["has_dns_record"] = 1
	} else {
		features["has_dns_record"] = 0
	}
	features["resolved_ip_count"] = float64(len(addrs))

	for _, ip := range addrs {
		if dc.inBlockedRange(ip) {
			features["ip_reputation"] = 1
			indicators = append(indicators, ThreatIndicator{
				Kind:    IndicatorKnownMalicious,
				Message: fmt.Sprintf("%s resolves into a known-malicious range (%s)", dec.Host, ip),
				Weight:  1.0,
			})
			break
		}
	}

	// NS/MX counts describe the target zone, so query the registrable
	// domain when one exists.
	zone := dec.RegistrableDomain
	if zone == "" {
		zone = dec.Host
	}
	zoneName := dns.Fqdn(zone)

	if nsCount, err := dc.countRecords(ctx, zoneName, dns.TypeNS); err == nil {
		features["ns_count"] = float64(nsCount)
	}
	if mxCount, err := dc.countRecords(ctx, zoneName, dns.TypeMX); err == nil {
		if mxCount > 0 {
			features["mx_present"] = 1
		} else {
			features["mx_present"] = 0
		}
	}

	return SignalBundle{Status: StatusOK, Features: features, Indicators: indicators}
}

func (dc *DNSCollector) queryA(ctx context.Context, name string) ([]net.IP, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := dc.client.ExchangeContext(ctx, msg, dc.resolver)
	if err != nil {
		return nil, err
	}

	var addrs []net.IP
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A)
		}
	}
	return addrs, nil
}

func (dc *DNSCollector) countRecords(ctx context.Context, name string, qtype uint16) (int, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	msg.RecursionDesired = true

	resp, _, err := dc.client.ExchangeContext(ctx, msg, dc.resolver)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype == qtype {
			count++
		}
	}
	return count, nil
}

func (dc *DNSCollector) inBlockedRange(ip net.IP) bool {
	contains, err := dc.ranger.Contains(ip)
	return err == nil && contains
}

func dnsStatus(ctx context.Context, err error) SignalStatus {
	if ctx.Err() == context.DeadlineExceeded {
		return StatusTimeout
	}
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return StatusTimeout
	}
	return StatusFailed
}
