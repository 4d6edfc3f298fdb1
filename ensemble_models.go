/*
File: ensemble_models.go
Description: Inference for the four classifier families of the ensemble:
             averaged decision trees, boosted stumps, a calibrated linear
             margin, and a logistic baseline. Parameters arrive in a
             snapshot; nothing here trains. Every model also yields additive
             per-feature contributions for explainability.
*/

package urlguard

import (
	"fmt"
	"math"
)

// Model identifiers, also the soft-voting weight keys in config.
const (
	ModelForest = "forest"
	ModelBoost  = "boost"
	ModelMargin = "margin"
	ModelLogit  = "logit"
)

// classifier is one member of the ensemble. Predict returns the phishing
// probability and additive per-feature contributions indexed by schema
// position; a neutral vector contributes zero everywhere.
type classifier interface {
	name() string
	predict(v *FeatureVector) (float64, []float64)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// --- Logistic baseline ---

// LogitParams is the serialized form: weights keyed by feature name, scored
// against the schema-default baseline.
type LogitParams struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

type logitModel struct {
	bias    float64
	weights []float64 // schema-ordered
}

func newLogitModel(p *LogitParams) (*logitModel, error) {
	weights, err := resolveWeights(ModelLogit, p.Weights)
	if err != nil {
		return nil, err
	}
	return &logitModel{bias: p.Bias, weights: weights}, nil
}

func (m *logitModel) name() string { return ModelLogit }

func (m *logitModel) predict(v *FeatureVector) (float64, []float64) {
	contribs := make([]float64, len(featureSchema))
	logit := m.bias
	for i, w := range m.weights {
		c := w * v.Centered(i)
		contribs[i] = c
		logit += c
	}
	return sigmoid(logit), contribs
}

// --- Calibrated linear margin ---

// MarginParams describe a linear margin classifier with Platt scaling:
// P = 1 / (1 + exp(A*f + B)), A < 0.
type MarginParams struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
	PlattA  float64            `json:"platt_a"`
	PlattB  float64            `json:"platt_b"`
}

type marginModel struct {
	bias    float64
	weights []float64
	plattA  float64
	plattB  float64
}

func newMarginModel(p *MarginParams) (*marginModel, error) {
	weights, err := resolveWeights(ModelMargin, p.Weights)
	if err != nil {
		return nil, err
	}
	if p.PlattA >= 0 {
		return nil, fmt.Errorf("margin model: platt_a must be negative, got %v", p.PlattA)
	}
	return &marginModel{bias: p.Bias, weights: weights, plattA: p.PlattA, plattB: p.PlattB}, nil
}

func (m *marginModel) name() string { return ModelMargin }

func (m *marginModel) predict(v *FeatureVector) (float64, []float64) {
	contribs := make([]float64, len(featureSchema))
	margin := m.bias
	for i, w := range m.weights {
		c := w * v.Centered(i)
		contribs[i] = c
		margin += c
	}
	return 1.0 / (1.0 + math.Exp(m.plattA*margin+m.plattB)), contribs
}

// --- Boosted stumps ---

// Stump adds Above to the score when the raw feature exceeds Threshold,
// Below otherwise.
type Stump struct {
	Feature   string  `json:"feature"`
	Threshold float64 `json:"threshold"`
	Above     float64 `json:"above"`
	Below     float64 `json:"below"`
}

type BoostParams struct {
	Bias   float64 `json:"bias"`
	Stumps []Stump `json:"stumps"`
}

type boostStump struct {
	index     int
	threshold float64
	above     float64
	below     float64
	// baseline is the branch value the schema default selects; stump
	// contributions are reported relative to it.
	baseline float64
}

type boostModel struct {
	bias   float64
	stumps []boostStump
}

func newBoostModel(p *BoostParams) (*boostModel, error) {
	m := &boostModel{bias: p.Bias}
	for _, s := range p.Stumps {
		i, ok := featureIndex[s.Feature]
		if !ok {
			return nil, fmt.Errorf("boost model: unknown feature %q", s.Feature)
		}
		bs := boostStump{index: i, threshold: s.Threshold, above: s.Above, below: s.Below}
		if featureSchema[i].Default > s.Threshold {
			bs.baseline = s.Above
		} else {
			bs.baseline = s.Below
		}
		m.stumps = append(m.stumps, bs)
	}
	return m, nil
}

func (m *boostModel) name() string { return ModelBoost }

func (m *boostModel) predict(v *FeatureVector) (float64, []float64) {
	contribs := make([]float64, len(featureSchema))
	score := m.bias
	values := v.Values()
	for _, s := range m.stumps {
		branch := s.below
		if values[s.index] > s.threshold {
			branch = s.above
		}
		score += branch
		contribs[s.index] += branch - s.baseline
	}
	// Contributions are relative to the neutral vector, not to bias, so a
	// default-valued feature always reads zero.
	return sigmoid(score), contribs
}

// --- Averaged decision trees ---

// TreeNode is either a split (Feature/Threshold/Left/Right) or a leaf
// (Leaf non-nil, a probability). Left is taken when value <= Threshold.
type TreeNode struct {
	Feature   string    `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Leaf      *float64  `json:"leaf,omitempty"`
}

type ForestParams struct {
	Trees []*TreeNode `json:"trees"`
}

type forestNode struct {
	index     int
	threshold float64
	left      *forestNode
	right     *forestNode
	leaf      bool
	// value is the leaf probability, or for splits the unweighted mean of
	// the subtree's leaves, used for path attribution.
	value float64
}

type forestModel struct {
	trees []*forestNode
}

func newForestModel(p *ForestParams) (*forestModel, error) {
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("forest model: no trees")
	}
	m := &forestModel{}
	for ti, t := range p.Trees {
		node, err := compileTree(t)
		if err != nil {
			return nil, fmt.Errorf("forest model: tree %d: %w", ti, err)
		}
		m.trees = append(m.trees, node)
	}
	return m, nil
}

func compileTree(n *TreeNode) (*forestNode, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node")
	}
	if n.Leaf != nil {
		return &forestNode{leaf: true, value: *n.Leaf}, nil
	}
	i, ok := featureIndex[n.Feature]
	if !ok {
		return nil, fmt.Errorf("unknown feature %q", n.Feature)
	}
	left, err := compileTree(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := compileTree(n.Right)
	if err != nil {
		return nil, err
	}
	node := &forestNode{index: i, threshold: n.Threshold, left: left, right: right}
	node.value = (subtreeSum(node) / float64(subtreeLeaves(node)))
	return node, nil
}

func subtreeSum(n *forestNode) float64 {
	if n.leaf {
		return n.value
	}
	return subtreeSum(n.left) + subtreeSum(n.right)
}

func subtreeLeaves(n *forestNode) int {
	if n.leaf {
		return 1
	}
	return subtreeLeaves(n.left) + subtreeLeaves(n.right)
}

func (m *forestModel) name() string { return ModelForest }

// predict averages tree probabilities. Contributions use path attribution:
// at each split, the change in expected value is credited to the split
// feature.
func (m *forestModel) predict(v *FeatureVector) (float64, []float64) {
	contribs := make([]float64, len(featureSchema))
	values := v.Values()
	sum := 0.0
	n := float64(len(m.trees))

	for _, root := range m.trees {
		node := root
		for !node.leaf {
			next := node.left
			if values[node.index] > node.threshold {
				next = node.right
			}
			contribs[node.index] += (next.value - node.value) / n
			node = next
		}
		sum += node.value
	}
	return sum / n, contribs
}

// resolveWeights maps name-keyed weights onto schema positions, rejecting
// unknown names so schema drift surfaces at load, not at scoring.
func resolveWeights(model string, named map[string]float64) ([]float64, error) {
	weights := make([]float64, len(featureSchema))
	for name, w := range named {
		i, ok := featureIndex[name]
		if !ok {
			return nil, fmt.Errorf("%s model: unknown feature %q", model, name)
		}
		weights[i] = w
	}
	return weights, nil
}
