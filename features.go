/*
File: features.go
Description: Versioned fixed-schema feature vector and the builder that
             merges collector bundles into it. Missing signals take the
             documented neutral default for their feature, never zero-filled
             blindly, so absent collectors do not drag the score either way.
*/

package urlguard

// FeatureSchemaVersion identifies the feature schema. A vector produced
// under one version is only scored by snapshots trained for the same
// version; the ensemble rejects mismatches at load time.
const FeatureSchemaVersion = "2026.2"

// Feature groups.
const (
	GroupLexical = "lexical"
	GroupDNS     = "dns"
	GroupTLS     = "tls"
	GroupContent = "content"
)

// FeatureSpec declares one feature of the schema. Default is the neutral
// baseline: the value assumed when no collector reported the feature, and
// the zero-contribution point for every model (models score x - Default).
type FeatureSpec struct {
	Name        string
	Group       string
	Default     float64
	Description string
}

// featureSchema is the fixed, ordered schema. Order is part of the schema:
// vectors are positional.
var featureSchema = []FeatureSpec{
	{"url_length", GroupLexical, 24, "total URL length in characters"},
	{"host_length", GroupLexical, 12, "hostname length in characters"},
	{"token_count", GroupLexical, 3, "alphanumeric tokens in host, path and query"},
	{"digit_ratio", GroupLexical, 0, "fraction of URL characters that are digits"},
	{"hyphen_count", GroupLexical, 0, "hyphens in the hostname"},
	{"underscore_count", GroupLexical, 0, "underscores in the URL"},
	{"subdomain_depth", GroupLexical, 0, "labels left of the registrable domain"},
	{"path_depth", GroupLexical, 1, "path segments"},
	{"query_param_count", GroupLexical, 0, "query parameters"},
	{"has_userinfo", GroupLexical, 0, "credentials embedded before the host"},
	{"suspicious_char_density", GroupLexical, 0, "fraction of characters outside the usual URL alphabet"},
	{"percent_encoding_count", GroupLexical, 0, "percent-encoded sequences"},
	{"url_entropy", GroupLexical, 3.2, "Shannon entropy of the full URL"},
	{"host_entropy", GroupLexical, 2.8, "Shannon entropy of the hostname"},
	{"brand_keyword", GroupLexical, 0, "impersonated brand name in tokens"},
	{"security_keyword", GroupLexical, 0, "urgency/security keywords in tokens (capped)"},
	{"suspicious_tld", GroupLexical, 0, "registered under a high-abuse TLD"},
	{"url_shortener", GroupLexical, 0, "host is a link-shortening service"},
	{"homograph", GroupLexical, 0, "punycode or mixed-script hostname"},
	{"ip_literal", GroupLexical, 0, "host is a raw IP address"},
	{"non_std_port", GroupLexical, 0, "explicit port outside the common set"},
	{"is_https", GroupLexical, 1, "scheme provides transport encryption"},
	{"scheme_risk", GroupLexical, 0, "intrinsic risk of the URL scheme"},
	{"data_payload_kb", GroupLexical, 0, "embedded data: payload size in KiB"},
	{"known_safe_domain", GroupLexical, 0, "registrable domain on the allowlist"},

	{"has_dns_record", GroupDNS, 0.5, "domain resolves to at least one address"},
	{"ns_count", GroupDNS, 2, "authoritative name servers"},
	{"mx_present", GroupDNS, 0.5, "domain has mail exchangers"},
	{"resolved_ip_count", GroupDNS, 1, "distinct resolved addresses"},
	{"ip_reputation", GroupDNS, 0, "resolved address inside a known-malicious range"},

	{"tls_present", GroupTLS, 0.5, "TLS handshake succeeded"},
	{"cert_valid", GroupTLS, 0.5, "certificate chain verified for the host"},
	{"cert_days_remaining", GroupTLS, 90, "days until certificate expiry"},
	{"self_signed", GroupTLS, 0, "certificate is self-issued"},
	{"hostname_match", GroupTLS, 0.5, "certificate covers the requested host"},

	{"login_form", GroupContent, 0, "page contains a credential form"},
	{"password_inputs", GroupContent, 0, "password input fields"},
	{"external_form_action", GroupContent, 0, "form posts to a different registrable domain"},
	{"script_obfuscation", GroupContent, 0, "density of eval/unescape/atob-style calls"},
	{"iframe_count", GroupContent, 0, "iframes on the page"},
	{"meta_refresh", GroupContent, 0, "meta-refresh redirect present"},
	{"right_click_disabled", GroupContent, 0, "context menu suppressed by script"},
	{"external_resource_ratio", GroupContent, 0.3, "fraction of resources loaded from other domains"},
}

var featureIndex = buildFeatureIndex()

func buildFeatureIndex() map[string]int {
	idx := make(map[string]int, len(featureSchema))
	for i, spec := range featureSchema {
		idx[spec.Name] = i
	}
	return idx
}

// FeatureVector is an ordered, fixed-schema numeric vector.
type FeatureVector struct {
	SchemaVersion string
	values        []float64
	present       []bool
}

// BuildFeatureVector merges collector bundles into a schema-ordered vector.
// Deterministic: identical bundles always produce an identical vector.
// Features never reported keep their schema default; feature names outside
// the schema are dropped with a warning.
func BuildFeatureVector(bundles []SignalBundle) *FeatureVector {
	v := &FeatureVector{
		SchemaVersion: FeatureSchemaVersion,
		values:        make([]float64, len(featureSchema)),
		present:       make([]bool, len(featureSchema)),
	}
	for i, spec := range featureSchema {
		v.values[i] = spec.Default
	}
	for _, b := range bundles {
		if b.Status != StatusOK {
			continue
		}
		for name, value := range b.Features {
			i, ok := featureIndex[name]
			if !ok {
				LogWarn("[FEATURES] Collector %s reported unknown feature %q, dropping", b.Collector, name)
				continue
			}
			v.values[i] = value
			v.present[i] = true
		}
	}
	return v
}

// Get returns the value for a named feature and whether a collector
// actually reported it (false means the schema default is in effect).
func (v *FeatureVector) Get(name string) (float64, bool) {
	i, ok := featureIndex[name]
	if !ok {
		return 0, false
	}
	return v.values[i], v.present[i]
}

// Values returns the vector in schema order. The slice is shared; callers
// must not mutate it.
func (v *FeatureVector) Values() []float64 {
	return v.values
}

// Centered returns value minus the schema default for a feature index, the
// form every model consumes.
func (v *FeatureVector) Centered(i int) float64 {
	return v.values[i] - featureSchema[i].Default
}

// Schema returns the feature specs in vector order.
func Schema() []FeatureSpec {
	return featureSchema
}
