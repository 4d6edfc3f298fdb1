package urlguard

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestResolver runs a miekg/dns UDP server answering a fixed zone.
func startTestResolver(t *testing.T) string {
	t.Helper()

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)

		q := req.Question[0]
		switch {
		case q.Name == "phishy.example." && q.Qtype == dns.TypeA:
			resp.Answer = append(resp.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
				A:   net.ParseIP("198.51.100.7"),
			})
		case q.Name == "phishy.example." && q.Qtype == dns.TypeNS:
			for _, ns := range []string{"ns1.phishy.example.", "ns2.phishy.example."} {
				resp.Answer = append(resp.Answer, &dns.NS{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: 60},
					Ns:  ns,
				})
			}
		}
		_ = w.WriteMsg(resp)
	})

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &dns.Server{PacketConn: conn, Handler: mux}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return conn.LocalAddr().String()
}

func testDNSCollector(t *testing.T, resolver string, blocked ...string) *DNSCollector {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Collectors.DNS.Resolver = resolver
	return NewDNSCollector(cfg.Collectors, ReputationConfig{BlockedCIDRs: blocked})
}

func TestDNSCollectorResolvedHost(t *testing.T) {
	resolver := startTestResolver(t)
	dc := testDNSCollector(t, resolver)

	dec, err := Tokenize("http://phishy.example/login")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b := dc.Collect(ctx, dec)

	require.Equal(t, StatusOK, b.Status, b.Err)
	assert.Equal(t, 1.0, b.Features["has_dns_record"])
	assert.Equal(t, 1.0, b.Features["resolved_ip_count"])
	assert.Equal(t, 2.0, b.Features["ns_count"])
	assert.Equal(t, 0.0, b.Features["mx_present"])
	assert.Empty(t, b.Indicators)
}

func TestDNSCollectorBlockedRange(t *testing.T) {
	resolver := startTestResolver(t)
	dc := testDNSCollector(t, resolver, "198.51.100.0/24")

	dec, err := Tokenize("http://phishy.example/login")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b := dc.Collect(ctx, dec)

	require.Equal(t, StatusOK, b.Status, b.Err)
	assert.Equal(t, 1.0, b.Features["ip_reputation"])
	assert.True(t, hasIndicator(b, IndicatorKnownMalicious))
}

func TestDNSCollectorIPLiteralOnlyRangeCheck(t *testing.T) {
	dc := testDNSCollector(t, "127.0.0.1:1", "203.0.113.0/24")

	dec, err := Tokenize("http://203.0.113.9/pay")
	require.NoError(t, err)

	// No resolver round-trip happens for IP literals, so the dead resolver
	// address never matters.
	b := dc.Collect(context.Background(), dec)
	require.Equal(t, StatusOK, b.Status)
	assert.Equal(t, 1.0, b.Features["ip_reputation"])
	assert.True(t, hasIndicator(b, IndicatorKnownMalicious))

	clean, err := Tokenize("http://192.0.2.9/pay")
	require.NoError(t, err)
	b = dc.Collect(context.Background(), clean)
	require.Equal(t, StatusOK, b.Status)
	assert.Zero(t, b.Features["ip_reputation"])
}

func TestDNSCollectorUnreachableResolver(t *testing.T) {
	dc := testDNSCollector(t, "127.0.0.1:1")

	dec, err := Tokenize("http://phishy.example/login")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	b := dc.Collect(ctx, dec)

	assert.NotEqual(t, StatusOK, b.Status)
}

func TestDNSCollectorInvalidCIDRSkipped(t *testing.T) {
	dc := testDNSCollector(t, "127.0.0.1:1", "not-a-cidr", "10.0.0.0/8")

	dec, err := Tokenize("http://10.1.2.3/")
	require.NoError(t, err)
	b := dc.Collect(context.Background(), dec)
	assert.Equal(t, 1.0, b.Features["ip_reputation"])
}

func TestDNSCollectorOnlyRunsUnderDeepScan(t *testing.T) {
	dc := testDNSCollector(t, "127.0.0.1:1")

	dec, err := Tokenize("http://phishy.example/login")
	require.NoError(t, err)

	assert.True(t, dc.Applies(dec, Options{DeepScan: true}))
	assert.False(t, dc.Applies(dec, Options{DeepScan: false}))

	literal, err := Tokenize("http://203.0.113.9/pay")
	require.NoError(t, err)
	assert.True(t, dc.Applies(literal, Options{DeepScan: true}))
	assert.False(t, dc.Applies(literal, Options{}))

	opaque, err := Tokenize("data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.False(t, dc.Applies(opaque, Options{DeepScan: true}))
}
