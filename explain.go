/*
File: explain.go
Description: Turns the ensemble's per-feature attributions into the ranked
             top-feature list and per-verdict recommendations attached to an
             assessment.
*/

package urlguard

import (
	"math"
	"sort"
)

// topContributions ranks schema features by absolute attribution, largest
// first, and returns the k strongest. Ties break on feature name so the
// ranking is stable across runs. Features with zero attribution never
// appear.
func topContributions(contribs []float64, k int) []FeatureContribution {
	ranked := make([]FeatureContribution, 0, len(contribs))
	for i, c := range contribs {
		if c == 0 {
			continue
		}
		ranked = append(ranked, FeatureContribution{
			Name:         featureSchema[i].Name,
			Contribution: c,
			Description:  featureSchema[i].Description,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := math.Abs(ranked[i].Contribution), math.Abs(ranked[j].Contribution)
		if ai != aj {
			return ai > aj
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// recommendations maps a verdict to operator-facing advice, sharpened by
// the indicators that actually fired.
func recommendations(level RiskLevel, threats []ThreatIndicator) []string {
	var recs []string

	switch level {
	case RiskCritical:
		recs = append(recs,
			"Block this URL immediately",
			"Report the URL to threat intelligence feeds")
	case RiskHigh:
		recs = append(recs,
			"Do not enter credentials or personal data on this site",
			"Verify the destination through an independent channel before visiting")
	case RiskMedium:
		recs = append(recs,
			"Treat this URL with caution and verify the destination before interacting")
	case RiskLow:
		recs = append(recs,
			"No strong phishing signals, but stay alert for unexpected prompts")
	default:
		recs = append(recs, "No action needed")
	}

	for _, t := range threats {
		switch t.Kind {
		case IndicatorBrandImpersonation:
			recs = append(recs, "Navigate to the impersonated brand's site directly instead of following this link")
		case IndicatorURLShortener:
			recs = append(recs, "Expand the shortened URL to reveal its true destination before visiting")
		case IndicatorHomograph:
			recs = append(recs, "Inspect the hostname character by character; it imitates a legitimate domain")
		case IndicatorAtSymbol:
			recs = append(recs, "Remove the embedded credentials from the URL; they mask the real destination")
		case IndicatorSelfSignedCert, IndicatorInvalidCert:
			recs = append(recs, "Do not proceed past certificate warnings for this site")
		}
	}

	return recs
}
