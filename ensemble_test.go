package urlguard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnsemble(t *testing.T) *ensemble {
	t.Helper()
	e, err := newEnsemble(builtinSnapshot(), DefaultConfig().Ensemble)
	require.NoError(t, err)
	return e
}

func vectorFor(t *testing.T, raw string) *FeatureVector {
	t.Helper()
	dec, err := Tokenize(raw)
	require.NoError(t, err)
	lc := NewLexicalCollector(LexicalConfig{})
	return BuildFeatureVector([]SignalBundle{lc.Collect(context.Background(), dec)})
}

func TestEnsembleBuiltinSnapshot(t *testing.T) {
	e := testEnsemble(t)
	require.Len(t, e.members, 4)

	total := 0.0
	for _, m := range e.members {
		total += m.weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestEnsembleNeutralVectorIsLowRisk(t *testing.T) {
	e := testEnsemble(t)
	score := e.score(BuildFeatureVector(nil))

	assert.Less(t, score.Probability, 0.4)
	require.Len(t, score.Predictions, 4)
	for _, p := range score.Predictions {
		assert.GreaterOrEqual(t, p.Probability, 0.0)
		assert.LessOrEqual(t, p.Probability, 1.0)
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)
	}
}

func TestEnsembleMonotoneInIndicators(t *testing.T) {
	e := testEnsemble(t)

	clean := e.score(vectorFor(t, "https://example.com/docs"))
	branded := e.score(vectorFor(t, "https://paypal-account.example.com/docs"))
	brandedBadTLD := e.score(vectorFor(t, "http://paypal-secure-verification.tk/login"))

	assert.Greater(t, branded.Probability, clean.Probability)
	assert.Greater(t, brandedBadTLD.Probability, branded.Probability)
}

func TestEnsembleDeterministic(t *testing.T) {
	e := testEnsemble(t)
	v := vectorFor(t, "http://paypal-secure-verification.tk/login")

	a := e.score(v)
	b := e.score(v)
	assert.Equal(t, a.Probability, b.Probability)
	assert.Equal(t, a.Predictions, b.Predictions)
	assert.Equal(t, a.Contributions, b.Contributions)
}

func TestEnsembleSchemaMismatchRejected(t *testing.T) {
	snap := builtinSnapshot()
	snap.SchemaVersion = "1999.1"

	_, err := newEnsemble(snap, DefaultConfig().Ensemble)
	require.Error(t, err)
	var uerr *ModelUnavailableError
	assert.ErrorAs(t, err, &uerr)
}

func TestEnsembleNoUsableModels(t *testing.T) {
	snap := &ModelSnapshot{SchemaVersion: FeatureSchemaVersion}
	_, err := newEnsemble(snap, DefaultConfig().Ensemble)
	require.Error(t, err)
	var uerr *ModelUnavailableError
	assert.ErrorAs(t, err, &uerr)
}

func TestEnsembleZeroWeightExcludesModel(t *testing.T) {
	cfg := DefaultConfig().Ensemble
	cfg.Weights = map[string]float64{ModelLogit: 1}

	e, err := newEnsemble(builtinSnapshot(), cfg)
	require.NoError(t, err)
	require.Len(t, e.members, 1)
	assert.Equal(t, ModelLogit, e.members[0].model.name())
	assert.Equal(t, 1.0, e.members[0].weight)
}

func TestEnsembleUnknownFeatureInSnapshot(t *testing.T) {
	snap := builtinSnapshot()
	snap.Logit.Weights["made_up_feature"] = 1.0
	defer delete(snap.Logit.Weights, "made_up_feature")

	_, err := newEnsemble(snap, DefaultConfig().Ensemble)
	assert.Error(t, err)
}

func TestEnsembleDisagreementFlagsLowConfidence(t *testing.T) {
	// One certain-phish tree, one near-certain-clean booster, two fence
	// sitters: maximal disagreement.
	snap := &ModelSnapshot{
		SchemaVersion: FeatureSchemaVersion,
		Forest:        &ForestParams{Trees: []*TreeNode{leaf(0.98)}},
		Boost:         &BoostParams{Bias: -4},
		Logit:         &LogitParams{Bias: 0},
		Margin:        &MarginParams{Bias: 0, PlattA: -1.7},
	}

	e, err := newEnsemble(snap, DefaultConfig().Ensemble)
	require.NoError(t, err)

	score := e.score(BuildFeatureVector(nil))
	assert.True(t, score.LowConfidence)
	assert.Less(t, score.Confidence, 0.6)
}

func TestLoadSnapshotFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	data, err := json.Marshal(builtinSnapshot())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	snap, err := loadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, FeatureSchemaVersion, snap.SchemaVersion)

	e, err := newEnsemble(snap, DefaultConfig().Ensemble)
	require.NoError(t, err)
	assert.Len(t, e.members, 4)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := loadSnapshot("/nonexistent/snapshot.json")
	assert.Error(t, err)
}
