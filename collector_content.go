/*
File: collector_content.go
Description: Content signal collector: one bounded GET of the page followed
             by static HTML analysis for credential forms, off-domain form
             targets, obfuscated script, and redirect tricks. Deep scan
             only; fetch failures degrade to neutral defaults.
*/

package urlguard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// obfuscationMarkers are script calls phishing kits lean on to hide
// payloads. Density over the script text drives the feature.
var obfuscationMarkers = []string{
	"eval(", "unescape(", "atob(", "document.write(", "fromcharcode(",
	"settimeout(\"", "\\x",
}

type ContentCollector struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

func NewContentCollector(cfg CollectorsConfig) *ContentCollector {
	return &ContentCollector{
		client: &http.Client{
			// Redirects are followed (the landing page is what matters) but
			// capped; the per-collector deadline bounds the whole fetch.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxBodyBytes: cfg.Content.MaxBodyBytes,
		userAgent:    cfg.Content.UserAgent,
	}
}

func (cc *ContentCollector) Name() string { return "content" }

func (cc *ContentCollector) Applies(dec *Decomposition, opts Options) bool {
	return opts.DeepScan && dec.Category == CategoryWeb && dec.Host != ""
}

func (cc *ContentCollector) Collect(ctx context.Context, dec *Decomposition) SignalBundle {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dec.Raw, nil)
	if err != nil {
		return SignalBundle{Status: StatusFailed, Err: err.Error()}
	}
	req.Header.Set("User-Agent", cc.userAgent)

	resp, err := cc.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return SignalBundle{Status: StatusTimeout, Err: err.Error()}
		}
		return SignalBundle{Status: StatusFailed, Err: err.Error()}
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text") {
		// Binary targets carry no page signals.
		return SignalBundle{Status: StatusSkipped, Err: "non-HTML content type"}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, cc.maxBodyBytes))
	if err != nil {
		return SignalBundle{Status: StatusFailed, Err: err.Error()}
	}

	return cc.analyze(doc, dec)
}

func (cc *ContentCollector) analyze(doc *goquery.Document, dec *Decomposition) SignalBundle {
	features := make(map[string]float64, 8)
	var indicators []ThreatIndicator

	passwordInputs := doc.Find(`input[type="password"]`).Length()
	features["password_inputs"] = float64(passwordInputs)

	loginForm := false
	externalAction := false
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		if form.Find(`input[type="password"]`).Length() > 0 {
			loginForm = true
		}
		action, ok := form.Attr("action")
		if !ok || action == "" {
			return
		}
		if target := registrableOf(action); target != "" && target != dec.RegistrableDomain {
			externalAction = true
		}
	})

	if loginForm {
		features["login_form"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorLoginForm,
			Message: "page asks for credentials",
			Weight:  0.5,
		})
	} else {
		features["login_form"] = 0
	}

	if externalAction {
		features["external_form_action"] = 1
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorExternalFormAction,
			Message: "form submits to a different registrable domain",
			Weight:  0.75,
		})
	} else {
		features["external_form_action"] = 0
	}

	var scriptText strings.Builder
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		scriptText.WriteString(strings.ToLower(s.Text()))
	})
	obfuscation := obfuscationDensity(scriptText.String())
	features["script_obfuscation"] = obfuscation
	if obfuscation > 0.4 {
		indicators = append(indicators, ThreatIndicator{
			Kind:    IndicatorObfuscatedScript,
			Message: "inline script uses heavy decode-and-execute patterns",
			Weight:  0.65,
		})
	}

	features["iframe_count"] = float64(doc.Find("iframe").Length())

	metaRefresh := 0.0
	doc.Find("meta").Each(func(_ int, m *goquery.Selection) {
		if equiv, _ := m.Attr("http-equiv"); strings.EqualFold(equiv, "refresh") {
			metaRefresh = 1
		}
	})
	features["meta_refresh"] = metaRefresh

	rightClick := 0.0
	if body := doc.Find("body"); body.Length() > 0 {
		if _, ok := body.Attr("oncontextmenu"); ok {
			rightClick = 1
		}
	}
	if strings.Contains(scriptText.String(), "contextmenu") {
		rightClick = 1
	}
	features["right_click_disabled"] = rightClick

	total, external := 0, 0
	doc.Find("img[src], script[src], link[href]").Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("src")
		if !ok {
			ref, _ = s.Attr("href")
		}
		target := registrableOf(ref)
		if target == "" {
			return // relative reference, same origin
		}
		total++
		if target != dec.RegistrableDomain {
			external++
		}
	})
	if total > 0 {
		features["external_resource_ratio"] = float64(external) / float64(total)
	}

	return SignalBundle{Status: StatusOK, Features: features, Indicators: indicators}
}

// registrableOf extracts the registrable domain of an absolute reference,
// or "" for relative ones.
func registrableOf(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld1
	}
	return host
}

func obfuscationDensity(script string) float64 {
	if len(script) == 0 {
		return 0
	}
	hits := 0
	for _, marker := range obfuscationMarkers {
		hits += strings.Count(script, marker)
	}
	// 1 hit per 400 bytes of script saturates the feature.
	density := float64(hits) * 400 / float64(len(script))
	if density > 1 {
		density = 1
	}
	return density
}
