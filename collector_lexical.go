/*
File: collector_lexical.go
Description: Pure lexical signal collector: structural statistics, entropy,
             keyword/TLD/shortener membership, and homograph detection.
             Always available; never touches the network.
*/

package urlguard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

const (
	longURLThreshold       = 100
	highHostEntropy        = 3.9
	maxSecurityKeywordHits = 3
	encodingAbuseThreshold = 5
	subdomainDepthAbuse    = 3
)

// LexicalCollector scores the URL string itself. The keyword and domain
// sets come from config overrides or the built-ins in data.go.
type LexicalCollector struct {
	brands      map[string]struct{}
	security    map[string]struct{}
	tlds        map[string]struct{}
	shorteners  map[string]struct{}
	safeDomains map[string]struct{}
}

func NewLexicalCollector(cfg LexicalConfig) *LexicalCollector {
	return &LexicalCollector{
		brands:      buildSet(cfg.BrandKeywords, defaultBrandKeywords),
		security:    buildSet(cfg.SecurityKeywords, defaultSecurityKeywords),
		tlds:        buildSet(cfg.SuspiciousTLDs, defaultSuspiciousTLDs),
		shorteners:  buildSet(cfg.URLShorteners, defaultURLShorteners),
		safeDomains: buildSet(cfg.SafeDomains, defaultSafeDomains),
	}
}

func (lc *LexicalCollector) Name() string { return "lexical" }

func (lc *LexicalCollector) Applies(dec *Decomposition, opts Options) bool { return true }

func (lc *LexicalCollector) Collect(ctx context.Context, dec *Decomposition) SignalBundle {
	features := make(map[string]float64, 25)
	var indicators []ThreatIndicator

	raw := dec.Raw
	features["url_length"] = float64(len(raw))
	features["host_length"] = float64(len(dec.Host))
	features["token_count"] = float64(len(dec.Tokens))
	features["digit_ratio"] = digitRatio(raw)
	features["hyphen_count"] = float64(strings.Count(dec.Host, "-"))
	features["underscore_count"] = float64(strings.Count(raw, "_"))
	features["subdomain_depth"] = float64(len(dec.SubdomainLabels))
	features["path_depth"] = float64(len(dec.PathSegments))
	features["query_param_count"] = float64(len(dec.QueryParams))
	features["suspicious_char_density"] = suspiciousCharDensity(raw)
	features["url_entropy"] = shannonEntropy(raw)
	features["host_entropy"] = shannonEntropy(dec.Host)
	features["scheme_risk"] = schemeBaseRisk[dec.Scheme] // unknown schemes read 0 here
	if _, known := schemeCategories[dec.Scheme]; !known {
		features["scheme_risk"] = 1
	}

	pctCount := float64(strings.Count(raw, "%"))
	features["percent_encoding_count"] = pctCount

	if dec.HasUserinfo {
		features["has_userinfo"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorAtSymbol,
			Message: "credentials embedded before the hostname can disguise the real destination",
			Weight:  0.55,
		})
	} else {
		features["has_userinfo"] = 0
	}

	if dec.Scheme == "https" || dec.Scheme == "sftp" || dec.Scheme == "ssh" {
		features["is_https"] = 1
	} else {
		features["is_https"] = 0
	}
	if dec.Category == CategoryWeb && dec.Scheme == "http" {
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorInsecureScheme,
			Message: "plain HTTP offers no transport protection",
			Weight:  0.3,
		})
	}

	if len(raw) > longURLThreshold {
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorLongURL,
			Message: fmt.Sprintf("unusually long URL (%d characters)", len(raw)),
			Weight:  0.3,
		})
	}

	if dec.IsIPLiteral {
		features["ip_literal"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorIPLiteral,
			Message: fmt.Sprintf("raw IPv%d address instead of a domain name", dec.IPVersion),
			Weight:  0.6,
		})
	} else {
		features["ip_literal"] = 0
	}

	if dec.Port != 0 && !standardPort(dec.Port) {
		features["non_std_port"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorNonStandardPort,
			Message: fmt.Sprintf("explicit non-standard port %d", dec.Port),
			Weight:  0.35,
		})
	} else {
		features["non_std_port"] = 0
	}

	if len(dec.SubdomainLabels) > subdomainDepthAbuse {
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorExcessiveSubdomains,
			Message: fmt.Sprintf("%d subdomain labels bury the real domain", len(dec.SubdomainLabels)),
			Weight:  0.4,
		})
	}

	safe := false
	if dec.RegistrableDomain != "" {
		if _, ok := lc.safeDomains[dec.RegistrableDomain]; ok {
			safe = true
		}
	}
	if safe {
		features["known_safe_domain"] = 1
	} else {
		features["known_safe_domain"] = 0
	}

	brandHits, securityHits := lc.keywordHits(dec, safe)
	if len(brandHits) > 0 {
		features["brand_keyword"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorBrandImpersonation,
			Message: fmt.Sprintf("brand keyword %q on a domain the brand does not own", brandHits[0]),
			Weight:  0.8,
		})
	} else {
		features["brand_keyword"] = 0
	}
	features["security_keyword"] = float64(securityHits)

	if dec.TLD != "" {
		if _, ok := lc.tlds[dec.TLD]; ok {
			features["suspicious_tld"] = 1
			indicators = append(indicators, ThreatIndicator{
				Kind:    IndicatorSuspiciousTLD,
				Message: fmt.Sprintf("high-abuse top-level domain .%s", dec.TLD),
				Weight:  0.7,
			})
		} else {
			features["suspicious_tld"] = 0
		}
	} else {
		features["suspicious_tld"] = 0
	}

	if lc.isShortener(dec) {
		features["url_shortener"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorURLShortener,
			Message: fmt.Sprintf("link shortener %s hides the destination", dec.Host),
			Weight:  0.5,
		})
	} else {
		features["url_shortener"] = 0
	}

	if reason := homographReason(dec.Host); reason != "" {
		features["homograph"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorHomograph,
			Message: reason,
			Weight:  0.85,
		})
	} else {
		features["homograph"] = 0
	}

	features["data_payload_kb"] = float64(dec.DataPayloadBytes) / 1024

	if pctCount > encodingAbuseThreshold || strings.Contains(raw, "%25") ||
		(dec.DataBase64 && dec.DataPayloadBytes > 2048) {
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorEncodingAbuse,
			Message: "heavy or nested encoding obscures the URL content",
			Weight:  0.45,
		})
	}

	if !dec.IsIPLiteral && features["host_entropy"] > highHostEntropy {
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorHighEntropy,
			Message: fmt.Sprintf("hostname looks machine-generated (entropy %.2f)", features["host_entropy"]),
			Weight:  0.4,
		})
	}

	return SignalBundle{Status: StatusOK, Features: features, Indicators: indicators}
}

// keywordHits walks the token stream once. Brand matches are suppressed on
// the brand's own domain: either the registrable domain is allowlisted, or
// the base label is exactly the brand under a reputable TLD.
func (lc *LexicalCollector) keywordHits(dec *Decomposition, safeDomain bool) (brands []string, securityHits int) {
	baseLabel := dec.RegistrableDomain
	if dec.TLD != "" && strings.HasSuffix(baseLabel, "."+dec.TLD) {
		baseLabel = strings.TrimSuffix(baseLabel, "."+dec.TLD)
	}
	_, reputable := reputableTLDs[dec.TLD]

	for _, tok := range dec.Tokens {
		if len(tok) < 2 {
			continue
		}
		if _, ok := lc.brands[tok]; ok && !safeDomain {
			if !(reputable && tok == baseLabel) {
				brands = append(brands, tok)
			}
		}
		if _, ok := lc.security[tok]; ok {
			if securityHits < maxSecurityKeywordHits {
				securityHits++
			}
		}
	}
	return brands, securityHits
}

func (lc *LexicalCollector) isShortener(dec *Decomposition) bool {
	if dec.Host == "" {
		return false
	}
	if _, ok := lc.shorteners[dec.Host]; ok {
		return true
	}
	if dec.RegistrableDomain != "" {
		_, ok := lc.shorteners[dec.RegistrableDomain]
		return ok
	}
	return false
}

// homographReason detects punycode labels and mixed-script hostnames.
// Returns an empty string for clean hosts.
func homographReason(host string) string {
	if host == "" {
		return ""
	}

	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			decoded, err := idna.Lookup.ToUnicode(label)
			if err != nil || decoded == label {
				return "undecodable punycode label in hostname"
			}
			return fmt.Sprintf("punycode label %q renders as %q", label, decoded)
		}
	}

	var hasLatin, hasConfusable bool
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z':
			hasLatin = true
		case unicode.Is(unicode.Cyrillic, r), unicode.Is(unicode.Greek, r):
			hasConfusable = true
		}
	}
	if hasLatin && hasConfusable {
		return "hostname mixes Latin with Cyrillic or Greek characters"
	}
	return ""
}

func digitRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits++
		}
	}
	return float64(digits) / float64(len(s))
}

// suspiciousCharDensity is the fraction of bytes outside the alphabet a
// benign URL normally uses.
func suspiciousCharDensity(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	odd := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte(":/.?=&#%_~+-", c) >= 0:
		default:
			odd++
		}
	}
	return float64(odd) / float64(len(s))
}

// shannonEntropy uses a zero-alloc stack array over the byte distribution.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}

	var entropy float64
	total := float64(len(s))

	for _, count := range counts {
		if count > 0 {
			p := float64(count) / total
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

func standardPort(port int) bool {
	switch port {
	case 80, 443, 21, 22, 25, 110, 143, 993, 995, 8080:
		return true
	}
	return false
}
