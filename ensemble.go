/*
File: ensemble.go
Description: Soft-voting ensemble over the four classifier families.
             Loads a parameter snapshot (JSON file or the built-in
             development weights), validates it against the feature schema
             version, and combines model probabilities with fixed,
             normalized weights. High disagreement between models marks the
             verdict low-confidence without changing the score.
*/

package urlguard

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// ModelSnapshot is the serialized parameter set for the whole ensemble.
// Families absent from a snapshot simply do not vote.
type ModelSnapshot struct {
	SchemaVersion string        `json:"schema_version"`
	Forest        *ForestParams `json:"forest,omitempty"`
	Boost         *BoostParams  `json:"boost,omitempty"`
	Margin        *MarginParams `json:"margin,omitempty"`
	Logit         *LogitParams  `json:"logit,omitempty"`
}

type votingMember struct {
	model  classifier
	weight float64
}

type ensemble struct {
	members           []votingMember
	varianceThreshold float64
}

// ensembleScore is the raw scoring output, before indicators and
// explanations are attached to an assessment.
type ensembleScore struct {
	Probability   float64
	Confidence    float64
	LowConfidence bool
	Predictions   []ModelPrediction
	// Contributions is the weight-averaged per-feature attribution in
	// schema order, the input to top-feature selection.
	Contributions []float64
}

// loadSnapshot reads a snapshot from disk, or returns the built-in
// development snapshot when path is empty.
func loadSnapshot(path string) (*ModelSnapshot, error) {
	if path == "" {
		return builtinSnapshot(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model snapshot: %w", err)
	}
	var snap ModelSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse model snapshot: %w", err)
	}
	return &snap, nil
}

// newEnsemble compiles a snapshot into a voting ensemble. Models with a
// zero or missing config weight are excluded; remaining weights are
// normalized to sum to 1. A snapshot trained against a different feature
// schema is rejected outright.
func newEnsemble(snap *ModelSnapshot, cfg EnsembleConfig) (*ensemble, error) {
	if snap.SchemaVersion != FeatureSchemaVersion {
		return nil, &ModelUnavailableError{
			Reason: fmt.Sprintf("snapshot schema %q does not match engine schema %q",
				snap.SchemaVersion, FeatureSchemaVersion),
		}
	}

	e := &ensemble{varianceThreshold: cfg.VarianceThreshold}

	add := func(name string, build func() (classifier, error)) error {
		w := cfg.Weights[name]
		if w <= 0 {
			LogDebug("[ENSEMBLE] Model %s carries no voting weight, skipping", name)
			return nil
		}
		m, err := build()
		if err != nil {
			return err
		}
		e.members = append(e.members, votingMember{model: m, weight: w})
		return nil
	}

	// Fixed registration order keeps prediction output deterministic.
	if snap.Forest != nil {
		if err := add(ModelForest, func() (classifier, error) { return newForestModel(snap.Forest) }); err != nil {
			return nil, err
		}
	}
	if snap.Boost != nil {
		if err := add(ModelBoost, func() (classifier, error) { return newBoostModel(snap.Boost) }); err != nil {
			return nil, err
		}
	}
	if snap.Margin != nil {
		if err := add(ModelMargin, func() (classifier, error) { return newMarginModel(snap.Margin) }); err != nil {
			return nil, err
		}
	}
	if snap.Logit != nil {
		if err := add(ModelLogit, func() (classifier, error) { return newLogitModel(snap.Logit) }); err != nil {
			return nil, err
		}
	}

	if len(e.members) == 0 {
		return nil, &ModelUnavailableError{Reason: "snapshot contains no usable models"}
	}

	total := 0.0
	for _, m := range e.members {
		total += m.weight
	}
	for i := range e.members {
		e.members[i].weight /= total
	}

	return e, nil
}

// score runs every member and soft-votes: the ensemble probability is the
// weighted mean of model probabilities, contributions the weighted mean of
// model attributions. Per-model confidence is distance from the decision
// boundary; overall confidence shrinks as the members disagree.
func (e *ensemble) score(v *FeatureVector) ensembleScore {
	out := ensembleScore{
		Predictions:   make([]ModelPrediction, 0, len(e.members)),
		Contributions: make([]float64, len(featureSchema)),
	}

	probs := make([]float64, 0, len(e.members))
	for _, m := range e.members {
		p, contribs := m.model.predict(v)
		probs = append(probs, p)
		out.Probability += m.weight * p
		for i, c := range contribs {
			out.Contributions[i] += m.weight * c
		}
		out.Predictions = append(out.Predictions, ModelPrediction{
			Model:       m.model.name(),
			Probability: p,
			Confidence:  2 * math.Abs(p-0.5),
		})
	}

	mean := 0.0
	for _, p := range probs {
		mean += p
	}
	mean /= float64(len(probs))
	variance := 0.0
	for _, p := range probs {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(probs))

	out.LowConfidence = variance > e.varianceThreshold
	out.Confidence = clamp(1.0-2.0*math.Sqrt(variance), 0, 1)
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
