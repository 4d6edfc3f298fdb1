/*
File: data.go
Description: Curated lexical datasets: impersonated brand keywords, phishing
             action keywords, high-risk TLDs, shortener domains, and the
             safe-domain allowlist. Development defaults; every set can be
             overridden via LexicalConfig.
*/

package urlguard

// --- 1. Brand Keywords (targets of impersonation) ---
// A token match raises BRAND_IMPERSONATION unless the registrable domain is
// the brand's own (see safeDomains and the own-brand rule in the lexical
// collector).
var defaultBrandKeywords = map[string]struct{}{
	// Payments & Banking
	"paypal": {}, "stripe": {}, "visa": {}, "mastercard": {}, "venmo": {},
	"coinbase": {}, "binance": {}, "chase": {}, "wellsfargo": {}, "hsbc": {},
	"barclays": {}, "santander": {},

	// Big Tech
	"google": {}, "gmail": {}, "youtube": {}, "microsoft": {}, "outlook": {},
	"office365": {}, "windows": {}, "apple": {}, "icloud": {}, "itunes": {},
	"amazon": {}, "aws": {}, "facebook": {}, "instagram": {}, "whatsapp": {},
	"netflix": {}, "spotify": {}, "twitter": {}, "linkedin": {}, "github": {},
	"dropbox": {}, "adobe": {}, "zoom": {}, "telegram": {},

	// Logistics & Commerce
	"dhl": {}, "fedex": {}, "ups": {}, "usps": {}, "ebay": {}, "alibaba": {},
	"walmart": {}, "shopify": {},
}

// --- 2. Security-Action Keywords ---
// Verbs and nouns phishing pages use to create urgency. Counted per token.
var defaultSecurityKeywords = map[string]struct{}{
	"secure": {}, "security": {}, "verify": {}, "verification": {},
	"validate": {}, "confirm": {}, "confirmation": {}, "update": {},
	"suspend": {}, "suspended": {}, "unlock": {}, "recover": {},
	"recovery": {}, "login": {}, "signin": {}, "logon": {}, "account": {},
	"password": {}, "credential": {}, "billing": {}, "invoice": {},
	"payment": {}, "wallet": {}, "refund": {}, "alert": {}, "urgent": {},
	"webscr": {}, "authenticate": {}, "authorize": {}, "banking": {},
}

// --- 3. High-Risk TLDs ---
// Free or near-free registries with heavy phishing abuse.
var defaultSuspiciousTLDs = map[string]struct{}{
	"tk": {}, "ml": {}, "ga": {}, "cf": {}, "gq": {}, "pw": {}, "top": {},
	"xyz": {}, "click": {}, "link": {}, "work": {}, "fit": {}, "rest": {},
	"loan": {}, "win": {}, "review": {}, "country": {}, "stream": {},
	"download": {}, "racing": {}, "party": {}, "gdn": {}, "bid": {},
	"zip": {}, "mov": {},
}

// --- 4. URL Shortener Domains ---
// Shorteners hide the destination; membership is an independent indicator,
// not proof of phishing.
var defaultURLShorteners = map[string]struct{}{
	"bit.ly": {}, "tinyurl.com": {}, "goo.gl": {}, "t.co": {}, "ow.ly": {},
	"is.gd": {}, "buff.ly": {}, "rebrand.ly": {}, "cutt.ly": {}, "t.ly": {},
	"rb.gy": {}, "shorturl.at": {}, "tiny.cc": {}, "lnkd.in": {},
	"s.id": {}, "v.gd": {},
}

// --- 5. Safe Domains ---
// Registrable domains owned by the brands above. Suppresses the own-brand
// false positive (google.com must not trigger BRAND_IMPERSONATION) and
// feeds the known_safe_domain feature.
var defaultSafeDomains = map[string]struct{}{
	"google.com": {}, "gmail.com": {}, "youtube.com": {}, "microsoft.com": {},
	"outlook.com": {}, "office365.com": {}, "live.com": {}, "apple.com": {},
	"icloud.com": {}, "amazon.com": {}, "aws.amazon.com": {}, "facebook.com": {},
	"instagram.com": {}, "whatsapp.com": {}, "netflix.com": {}, "spotify.com": {},
	"twitter.com": {}, "x.com": {}, "linkedin.com": {}, "github.com": {},
	"dropbox.com": {}, "adobe.com": {}, "zoom.us": {}, "telegram.org": {},
	"paypal.com": {}, "stripe.com": {}, "visa.com": {}, "mastercard.com": {},
	"venmo.com": {}, "coinbase.com": {}, "binance.com": {}, "chase.com": {},
	"wellsfargo.com": {}, "hsbc.com": {}, "dhl.com": {}, "fedex.com": {},
	"ups.com": {}, "usps.com": {}, "ebay.com": {}, "walmart.com": {},
	"shopify.com": {}, "stackoverflow.com": {}, "wikipedia.org": {},
}

// --- 6. Reputable TLDs ---
// Used only by the own-brand rule: a bare brand label under one of these is
// treated as the brand itself, not an impersonation.
var reputableTLDs = map[string]struct{}{
	"com": {}, "org": {}, "net": {}, "edu": {}, "gov": {}, "io": {},
	"co": {}, "us": {}, "uk": {}, "co.uk": {}, "de": {}, "fr": {},
	"jp": {}, "ca": {}, "au": {}, "com.au": {},
}

// buildSet lowercases a config list into a lookup set, falling back to the
// built-in when the override is empty.
func buildSet(override []string, builtin map[string]struct{}) map[string]struct{} {
	if len(override) == 0 {
		return builtin
	}
	set := make(map[string]struct{}, len(override))
	for _, v := range override {
		set[normalizeToken(v)] = struct{}{}
	}
	return set
}
