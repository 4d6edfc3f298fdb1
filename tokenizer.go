/*
File: tokenizer.go
Description: Pure lexical analysis of a raw URL: scheme/category detection,
             host and registrable-domain decomposition, token extraction,
             and the normalized fingerprint used as the cache key.
*/

package urlguard

import (
	"net/netip"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ProtocolCategory groups URL schemes for scoring. Non-web categories skip
// the TLS and content collectors but still produce a full assessment.
type ProtocolCategory string

const (
	CategoryWeb           ProtocolCategory = "web"
	CategoryFileTransfer  ProtocolCategory = "file_transfer"
	CategoryEmail         ProtocolCategory = "email"
	CategoryTelephony     ProtocolCategory = "telephony"
	CategoryRemoteAccess  ProtocolCategory = "remote_access"
	CategoryPeerToPeer    ProtocolCategory = "peer_to_peer"
	CategoryCrypto        ProtocolCategory = "cryptocurrency"
	CategoryDataEmbedded  ProtocolCategory = "data_embedded"
	CategoryCustomUnknown ProtocolCategory = "custom_unknown"
)

// schemeCategories maps known schemes to their category. Anything else is
// custom_unknown, which still tokenizes and scores.
var schemeCategories = map[string]ProtocolCategory{
	"http":  CategoryWeb,
	"https": CategoryWeb,

	"ftp":  CategoryFileTransfer,
	"ftps": CategoryFileTransfer,
	"sftp": CategoryFileTransfer,
	"file": CategoryFileTransfer,

	"mailto": CategoryEmail,

	"tel": CategoryTelephony,
	"sms": CategoryTelephony,

	"ssh":    CategoryRemoteAccess,
	"telnet": CategoryRemoteAccess,
	"rdp":    CategoryRemoteAccess,
	"vnc":    CategoryRemoteAccess,

	"magnet":  CategoryPeerToPeer,
	"torrent": CategoryPeerToPeer,
	"ed2k":    CategoryPeerToPeer,

	"bitcoin":  CategoryCrypto,
	"ethereum": CategoryCrypto,
	"litecoin": CategoryCrypto,

	"data": CategoryDataEmbedded,
}

// schemeBaseRisk is the intrinsic transport risk of a scheme: 0 encrypted or
// benign, 0.5 plaintext or redirect-capable, 1 unencrypted remote/executable.
var schemeBaseRisk = map[string]float64{
	"https": 0, "sftp": 0, "tel": 0,
	"http": 0.5, "ftps": 0.5, "mailto": 0.5, "sms": 0.5, "data": 0.5,
	"bitcoin": 0.5, "ethereum": 0.5, "litecoin": 0.5,
	"ftp": 1, "file": 1, "ssh": 1, "telnet": 1, "rdp": 1, "vnc": 1,
	"magnet": 1, "torrent": 1, "ed2k": 1,
}

// QueryParam is one key/value pair, kept sorted for fingerprinting.
type QueryParam struct {
	Key   string
	Value string
}

// Decomposition is the structured form of a parsed URL. It is immutable
// after Tokenize returns and shared read-only across collectors.
type Decomposition struct {
	Raw         string
	Scheme      string
	Category    ProtocolCategory
	HasUserinfo bool

	Host        string // lowercased, no port, no brackets
	Port        int    // 0 when absent
	IsIPLiteral bool
	IPVersion   int // 4 or 6, 0 for DNS names

	RegistrableDomain string // eTLD+1, empty for IPs and bare TLDs
	TLD               string // public suffix, empty for IPs
	SubdomainLabels   []string

	PathSegments []string
	QueryParams  []QueryParam // sorted by key, then value
	Tokens       []string     // lowercased alphanumeric runs, percent-decoded

	// Opaque payload for non-hierarchical schemes (mailto, data, tel, ...).
	Opaque string

	// data: URL details.
	DataMediaType    string
	DataBase64       bool
	DataPayloadBytes int

	Fingerprint string
}

// Tokenize parses a raw URL string into a Decomposition. It is pure and
// performs no I/O. Unusual-but-registered schemes succeed with category
// custom_unknown; only genuinely unparsable input fails, with
// *MalformedURLError.
func Tokenize(raw string) (*Decomposition, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &MalformedURLError{URL: raw, Reason: "empty input"}
	}
	if len(trimmed) > maxURLLength {
		return nil, &MalformedURLError{URL: truncate(raw, 80), Reason: "exceeds maximum length"}
	}
	for _, r := range trimmed {
		if r == ' ' || r < 0x20 || r == 0x7f {
			return nil, &MalformedURLError{URL: truncate(raw, 80), Reason: "contains whitespace or control characters"}
		}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &MalformedURLError{URL: truncate(raw, 80), Reason: err.Error()}
	}
	if u.Scheme == "" {
		return nil, &MalformedURLError{URL: truncate(raw, 80), Reason: "missing scheme"}
	}

	scheme := strings.ToLower(u.Scheme)
	category, known := schemeCategories[scheme]
	if !known {
		category = CategoryCustomUnknown
	}

	dec := &Decomposition{
		Raw:         trimmed,
		Scheme:      scheme,
		Category:    category,
		HasUserinfo: u.User != nil,
		Opaque:      u.Opaque,
	}

	dec.Host = strings.ToLower(u.Hostname())
	if dec.Host == "" && category == CategoryEmail {
		// mailto carries the address in the opaque part.
		if at := strings.LastIndexByte(u.Opaque, '@'); at >= 0 && at < len(u.Opaque)-1 {
			dec.Host = strings.ToLower(u.Opaque[at+1:])
		}
	}

	if hostRequired(category) && dec.Host == "" {
		return nil, &MalformedURLError{URL: truncate(raw, 80), Reason: "missing host"}
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, &MalformedURLError{URL: truncate(raw, 80), Reason: "invalid port"}
		}
		dec.Port = port
	}

	if addr, err := netip.ParseAddr(dec.Host); err == nil {
		dec.IsIPLiteral = true
		if addr.Is4() || addr.Is4In6() {
			dec.IPVersion = 4
		} else {
			dec.IPVersion = 6
		}
	} else if dec.Host != "" {
		suffix, _ := publicsuffix.PublicSuffix(dec.Host)
		dec.TLD = suffix
		if etld1, err := publicsuffix.EffectiveTLDPlusOne(dec.Host); err == nil {
			dec.RegistrableDomain = etld1
			if len(dec.Host) > len(etld1) {
				sub := strings.TrimSuffix(dec.Host[:len(dec.Host)-len(etld1)], ".")
				if sub != "" {
					dec.SubdomainLabels = strings.Split(sub, ".")
				}
			}
		}
	}

	for _, seg := range strings.Split(u.EscapedPath(), "/") {
		if seg != "" {
			dec.PathSegments = append(dec.PathSegments, seg)
		}
	}

	dec.QueryParams = sortedQueryParams(u.RawQuery)

	if category == CategoryDataEmbedded {
		parseDataOpaque(dec)
	}

	dec.Tokens = extractTokens(dec, u)
	dec.Fingerprint = buildFingerprint(dec, u)

	return dec, nil
}

const maxURLLength = 4096

func hostRequired(c ProtocolCategory) bool {
	switch c {
	case CategoryWeb, CategoryRemoteAccess:
		return true
	default:
		return false
	}
}

func sortedQueryParams(rawQuery string) []QueryParam {
	if rawQuery == "" {
		return nil
	}
	var params []QueryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		params = append(params, QueryParam{Key: key, Value: value})
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].Key != params[j].Key {
			return params[i].Key < params[j].Key
		}
		return params[i].Value < params[j].Value
	})
	return params
}

// parseDataOpaque splits data:[<mediatype>][;base64],<payload>.
func parseDataOpaque(dec *Decomposition) {
	meta, payload, found := strings.Cut(dec.Opaque, ",")
	if !found {
		return
	}
	if strings.HasSuffix(meta, ";base64") {
		dec.DataBase64 = true
		meta = strings.TrimSuffix(meta, ";base64")
	}
	if meta == "" {
		meta = "text/plain"
	}
	dec.DataMediaType = strings.ToLower(meta)
	dec.DataPayloadBytes = len(payload)
}

// extractTokens returns the lowercased alphanumeric runs of the
// percent-decoded host, path, and query. The original string is untouched;
// decoding happens only for token analysis.
func extractTokens(dec *Decomposition, u *url.URL) []string {
	var sb strings.Builder
	sb.WriteString(dec.Host)
	sb.WriteByte(' ')
	if u.Opaque != "" {
		if decoded, err := url.PathUnescape(u.Opaque); err == nil {
			sb.WriteString(decoded)
		} else {
			sb.WriteString(u.Opaque)
		}
	} else {
		sb.WriteString(u.Path) // already decoded by url.Parse
	}
	for _, p := range dec.QueryParams {
		sb.WriteByte(' ')
		sb.WriteString(p.Key)
		sb.WriteByte(' ')
		sb.WriteString(p.Value)
	}

	text := strings.ToLower(sb.String())
	var tokens []string
	start := -1
	for i, r := range text {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum && start < 0 {
			start = i
		} else if !alnum && start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// buildFingerprint produces the normalized cache key: lowercase scheme,
// host, and path with the trailing slash trimmed and query parameters
// sorted. Two URLs differing only in query order or a trailing slash share
// a fingerprint.
func buildFingerprint(dec *Decomposition, u *url.URL) string {
	var sb strings.Builder
	sb.WriteString(dec.Scheme)

	if u.Opaque != "" {
		sb.WriteByte(':')
		sb.WriteString(strings.ToLower(u.Opaque))
	} else {
		sb.WriteString("://")
		sb.WriteString(dec.Host)
		if dec.Port != 0 && !isDefaultPort(dec.Scheme, dec.Port) {
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(dec.Port))
		}
		path := strings.ToLower(u.EscapedPath())
		if path != "/" {
			sb.WriteString(strings.TrimSuffix(path, "/"))
		}
	}

	if len(dec.QueryParams) > 0 {
		sb.WriteByte('?')
		for i, p := range dec.QueryParams {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(p.Key)
			sb.WriteByte('=')
			sb.WriteString(p.Value)
		}
	}

	return sb.String()
}

func isDefaultPort(scheme string, port int) bool {
	switch scheme {
	case "http":
		return port == 80
	case "https":
		return port == 443
	case "ftp":
		return port == 21
	case "ssh", "sftp":
		return port == 22
	default:
		return false
	}
}

// normalizeToken lowercases and strips a leading dot, so config lists may
// write TLDs as ".tk" or "tk".
func normalizeToken(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
