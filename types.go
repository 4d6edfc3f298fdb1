/*
File: types.go
Description: Core result types for the URL risk engine: risk levels, threat
             indicators, model predictions, and the final RiskAssessment.
*/

package urlguard

import (
	"fmt"
	"time"
)

// RiskLevel is the categorical band of a 0-100 risk score.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Band lower bounds on the 0-100 scale, inclusive.
const (
	bandLow      = 20.0
	bandMedium   = 40.0
	bandHigh     = 70.0
	bandCritical = 90.0
)

// LevelForProbability bands a probability into a RiskLevel. Banding uses the
// unrounded probability*100 value, so 0.6999 is MEDIUM while 0.70 is HIGH
// even though both display as score 70.
func LevelForProbability(prob float64) RiskLevel {
	scaled := prob * 100
	switch {
	case scaled >= bandCritical:
		return RiskCritical
	case scaled >= bandHigh:
		return RiskHigh
	case scaled >= bandMedium:
		return RiskMedium
	case scaled >= bandLow:
		return RiskLow
	default:
		return RiskSafe
	}
}

// IndicatorKind names a discrete heuristic finding.
type IndicatorKind string

const (
	IndicatorBrandImpersonation  IndicatorKind = "BRAND_IMPERSONATION"
	IndicatorSuspiciousTLD       IndicatorKind = "SUSPICIOUS_TLD"
	IndicatorURLShortener        IndicatorKind = "URL_SHORTENER"
	IndicatorHomograph           IndicatorKind = "HOMOGRAPH"
	IndicatorLongURL             IndicatorKind = "LONG_URL"
	IndicatorIPLiteral           IndicatorKind = "IP_LITERAL"
	IndicatorEncodingAbuse       IndicatorKind = "ENCODING_ABUSE"
	IndicatorAtSymbol            IndicatorKind = "AT_SYMBOL"
	IndicatorExcessiveSubdomains IndicatorKind = "EXCESSIVE_SUBDOMAINS"
	IndicatorNonStandardPort     IndicatorKind = "NON_STANDARD_PORT"
	IndicatorInsecureScheme      IndicatorKind = "INSECURE_SCHEME"
	IndicatorHighEntropy         IndicatorKind = "HIGH_ENTROPY"
	IndicatorKnownMalicious      IndicatorKind = "KNOWN_MALICIOUS"
	IndicatorLoginForm           IndicatorKind = "LOGIN_FORM"
	IndicatorExternalFormAction  IndicatorKind = "EXTERNAL_FORM_ACTION"
	IndicatorObfuscatedScript    IndicatorKind = "OBFUSCATED_SCRIPT"
	IndicatorSelfSignedCert      IndicatorKind = "SELF_SIGNED_CERT"
	IndicatorInvalidCert         IndicatorKind = "INVALID_CERT"
)

// ThreatIndicator is a named heuristic finding attached to an assessment.
// Indicators surface independently of the ensemble score: a strong signal is
// reported even when averaging pulls the final probability down.
type ThreatIndicator struct {
	Kind    IndicatorKind `json:"kind"`
	Message string        `json:"message"`
	Weight  float64       `json:"weight"`
}

// ModelPrediction is one classifier's output for a single scoring call.
type ModelPrediction struct {
	Model       string  `json:"model"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

// FeatureContribution is one entry of the explainability ranking.
type FeatureContribution struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Description  string  `json:"description,omitempty"`
}

// RiskAssessment is the final, serializable verdict for one URL.
type RiskAssessment struct {
	ID              string                `json:"id"`
	URL             string                `json:"url"`
	Fingerprint     string                `json:"fingerprint"`
	Category        ProtocolCategory      `json:"category"`
	Probability     float64               `json:"probability"`
	RiskScore       int                   `json:"riskScore"`
	RiskLevel       RiskLevel             `json:"riskLevel"`
	Confidence      float64               `json:"confidence"`
	LowConfidence   bool                  `json:"lowConfidence,omitempty"`
	Threats         []ThreatIndicator     `json:"threats"`
	TopFeatures     []FeatureContribution `json:"topFeatures"`
	Predictions     []ModelPrediction     `json:"predictions,omitempty"`
	Recommendations []string              `json:"recommendations,omitempty"`
	SchemaVersion   string                `json:"schemaVersion"`
	EngineVersion   string                `json:"engineVersion"`
	Timestamp       time.Time             `json:"timestamp"`
	ElapsedMillis   int64                 `json:"analysisTimeMs"`

	// FromCache marks a cache hit. Excluded from the serialized form so a
	// cached assessment stays byte-identical to the original.
	FromCache bool `json:"-"`
}

// BatchResult pairs one input URL of AnalyzeBatch with its outcome. Err is
// set instead of Assessment when that URL failed; other entries are
// unaffected. Error carries the same message in the serialized form so
// failed entries stay visible after marshaling.
type BatchResult struct {
	URL        string          `json:"url"`
	Assessment *RiskAssessment `json:"assessment,omitempty"`
	Error      string          `json:"error,omitempty"`
	Err        error           `json:"-"`
}

// MalformedURLError reports input that cannot be tokenized. It is returned
// to the caller and never retried.
type MalformedURLError struct {
	URL    string
	Reason string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed url %q: %s", e.URL, e.Reason)
}

// ModelUnavailableError reports that no classifier in the ensemble could
// score the request. Fatal for the request: the engine never falls back to
// a heuristics-only score.
type ModelUnavailableError struct {
	Reason string
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("ensemble unavailable: %s", e.Reason)
}
