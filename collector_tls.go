/*
File: collector_tls.go
Description: Transport signal collector: certificate presence, validity,
             remaining lifetime, and issuer class for web URLs. Runs only
             under deep scan; handshake failures degrade to neutral
             defaults.
*/

package urlguard

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"time"
)

type TLSCollector struct{}

func NewTLSCollector() *TLSCollector { return &TLSCollector{} }

func (tc *TLSCollector) Name() string { return "tls" }

func (tc *TLSCollector) Applies(dec *Decomposition, opts Options) bool {
	return opts.DeepScan && dec.Category == CategoryWeb && dec.Host != ""
}

func (tc *TLSCollector) Collect(ctx context.Context, dec *Decomposition) SignalBundle {
	features := make(map[string]float64, 5)
	var indicators []ThreatIndicator

	port := dec.Port
	if port == 0 {
		port = 443
	}
	addr := net.JoinHostPort(dec.Host, strconv.Itoa(port))

	dialer := &net.Dialer{}
	// Verification is done manually below so that a failed chain still
	// yields the certificate details as features.
	netConn, err := (&tls.Dialer{
		NetDialer: dialer,
		Config: &tls.Config{
			ServerName:         dec.Host,
			InsecureSkipVerify: true,
		},
	}).DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return SignalBundle{Status: StatusTimeout, Err: err.Error()}
		}
		// No TLS endpoint at all is itself a signal for web URLs.
		features["tls_present"] = 0
		features["cert_valid"] = 0
		return SignalBundle{Status: StatusOK, Features: features, Err: err.Error()}
	}
	defer netConn.Close()

	features["tls_present"] = 1

	// tls.Dialer.DialContext returns a net.Conn whose concrete type is
	// *tls.Conn on success.
	state := netConn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		features["cert_valid"] = 0
		return SignalBundle{Status: StatusOK, Features: features}
	}

	leaf := state.PeerCertificates[0]

	features["cert_days_remaining"] = time.Until(leaf.NotAfter).Hours() / 24

	selfSigned := len(state.PeerCertificates) == 1 && leaf.Issuer.String() == leaf.Subject.String()
	if selfSigned {
		features["self_signed"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorSelfSignedCert,
			Message: "server presents a self-signed certificate",
			Weight:  0.55,
		})
	} else {
		features["self_signed"] = 0
	}

	if err := leaf.VerifyHostname(dec.Host); err == nil {
		features["hostname_match"] = 1
	} else {
		features["hostname_match"] = 0
	}

	intermediates := x509.NewCertPool()
	for _, cert := range state.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, verifyErr := leaf.Verify(x509.VerifyOptions{
		DNSName:       dec.Host,
		Intermediates: intermediates,
	})
	if verifyErr == nil {
		features["cert_valid"] = 1
	} else {
		features["cert_valid"] = 0
		if !selfSigned {
			indicators = append(indicators, ThreatIndicator{
				Kind:    IndicatorInvalidCert,
				Message: fmt.Sprintf("certificate does not verify: %v", verifyErr),
				Weight:  0.6,
			})
		}
	}

	return SignalBundle{Status: StatusOK, Features: features, Indicators: indicators}
}
