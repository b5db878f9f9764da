// Package tree implements decision tree models for classification.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goensemble/core/model"
	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

// node is one node of the fitted tree, stored in a flat array so that node
// indices are stable leaf identifiers.
type node struct {
	feature   int // split feature index, -1 for leaves
	threshold float64
	left      int // child node ids, -1 for leaves
	right     int
	counts    []float64 // per-class sample counts of the training data at this node
}

func (n *node) isLeaf() bool {
	return n.feature < 0
}

// DecisionTreeClassifier implements a CART classification tree.
// Compatible with scikit-learn's DecisionTreeClassifier.
type DecisionTreeClassifier struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	criterion       string // Split quality: "gini", "entropy"
	maxDepth        int    // Maximum tree depth, -1 for unlimited
	minSamplesSplit int    // Minimum samples required to split a node
	minSamplesLeaf  int    // Minimum samples required in each child
	maxFeatures     int    // Candidate features per split, <=0 for all
	randomState     int64  // Seed for feature subsampling

	// Model parameters
	nodes               []node
	classes_            []int
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
	depth_              int

	rng *rand.Rand
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a new DecisionTreeClassifier.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		randomState:     0,
	}

	for _, opt := range opts {
		opt(dt)
	}

	return dt
}

// WithCriterion sets the split quality measure ("gini" or "entropy").
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the maximum tree depth. Negative values grow a full tree.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required in a leaf.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures limits the number of candidate features considered per
// split. Values <= 0 or larger than the feature count mean all features.
func WithMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithRandomState sets the seed for feature subsampling.
func WithRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// Fit builds the tree from training data X (n_samples x n_features) and
// integer labels y (n_samples x 1). Repeated calls replace the fitted tree
// wholesale.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return scierrors.NewValueError("DecisionTreeClassifier.Fit", "empty training data")
	}
	if yRows != nSamples {
		return scierrors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return scierrors.NewMultiOutputError("DecisionTreeClassifier", yCols)
	}

	dt.nFeatures_ = nFeatures
	dt.extractClasses(y)
	dt.rng = rand.New(rand.NewPCG(uint64(dt.randomState), uint64(dt.randomState)^0x9e3779b97f4a7c15))

	yIdx := make([]int, nSamples)
	classIndex := make(map[int]int, dt.nClasses_)
	for i, c := range dt.classes_ {
		classIndex[c] = i
	}
	for i := 0; i < nSamples; i++ {
		yIdx[i] = classIndex[int(y.At(i, 0))]
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	dt.nodes = dt.nodes[:0]
	dt.depth_ = 0
	dt.featureImportances_ = make([]float64, nFeatures)

	dt.build(X, yIdx, indices, 0)
	dt.normalizeImportances()

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// extractClasses records the sorted unique class labels in y.
func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	dt.classes_ = dt.classes_[:0]

	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		if !seen[label] {
			seen[label] = true
			dt.classes_ = append(dt.classes_, label)
		}
	}

	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
}

// build recursively grows the subtree over the given sample indices and
// returns the new node's id.
func (dt *DecisionTreeClassifier) build(X mat.Matrix, yIdx, indices []int, depth int) int {
	counts := make([]float64, dt.nClasses_)
	for _, i := range indices {
		counts[yIdx[i]]++
	}

	id := len(dt.nodes)
	dt.nodes = append(dt.nodes, node{feature: -1, left: -1, right: -1, counts: counts})
	if depth > dt.depth_ {
		dt.depth_ = depth
	}

	n := len(indices)
	imp := dt.impurity(counts, float64(n))

	if imp == 0 || n < dt.minSamplesSplit || (dt.maxDepth >= 0 && depth >= dt.maxDepth) {
		return id
	}

	feature, threshold, decrease := dt.bestSplit(X, yIdx, indices, imp)
	if feature < 0 {
		return id
	}

	dt.featureImportances_[feature] += decrease

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := dt.build(X, yIdx, leftIdx, depth+1)
	right := dt.build(X, yIdx, rightIdx, depth+1)

	dt.nodes[id].feature = feature
	dt.nodes[id].threshold = threshold
	dt.nodes[id].left = left
	dt.nodes[id].right = right
	return id
}

// valueLabel pairs one feature value with the class index of its sample.
type valueLabel struct {
	value float64
	label int
}

// bestSplit searches the candidate features for the threshold with the
// largest impurity decrease. Returns feature -1 if no valid split exists.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, yIdx, indices []int, parentImpurity float64) (int, float64, float64) {
	n := len(indices)
	features := dt.candidateFeatures()

	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0

	sorted := make([]valueLabel, n)
	leftCounts := make([]float64, dt.nClasses_)
	totalCounts := make([]float64, dt.nClasses_)

	for _, f := range features {
		for j, i := range indices {
			sorted[j] = valueLabel{value: X.At(i, f), label: yIdx[i]}
		}
		sort.Slice(sorted, func(a, b int) bool { return sorted[a].value < sorted[b].value })

		for k := range leftCounts {
			leftCounts[k] = 0
			totalCounts[k] = 0
		}
		for _, vl := range sorted {
			totalCounts[vl.label]++
		}

		for p := 1; p < n; p++ {
			leftCounts[sorted[p-1].label]++

			if sorted[p].value == sorted[p-1].value {
				continue
			}

			nLeft := p
			nRight := n - p
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			impLeft := dt.impurityLeftRight(leftCounts, totalCounts, float64(nLeft), float64(nRight))
			decrease := parentImpurity - impLeft
			if decrease > bestDecrease {
				bestDecrease = decrease
				bestFeature = f
				bestThreshold = (sorted[p-1].value + sorted[p].value) / 2
			}
		}
	}

	if bestFeature < 0 {
		return -1, 0, 0
	}
	// Scale by node size so deeper, smaller splits contribute less importance.
	return bestFeature, bestThreshold, float64(n) * bestDecrease
}

// candidateFeatures returns the feature indices considered for the next
// split, in ascending order for deterministic tie-breaking.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	if dt.maxFeatures <= 0 || dt.maxFeatures >= dt.nFeatures_ {
		features := make([]int, dt.nFeatures_)
		for i := range features {
			features[i] = i
		}
		return features
	}

	perm := dt.rng.Perm(dt.nFeatures_)
	features := perm[:dt.maxFeatures]
	sort.Ints(features)
	return features
}

// impurityLeftRight computes the size-weighted mean impurity of the two
// children implied by leftCounts and totalCounts.
func (dt *DecisionTreeClassifier) impurityLeftRight(leftCounts, totalCounts []float64, nLeft, nRight float64) float64 {
	rightCounts := make([]float64, len(totalCounts))
	for k := range totalCounts {
		rightCounts[k] = totalCounts[k] - leftCounts[k]
	}
	n := nLeft + nRight
	return (nLeft*dt.impurity(leftCounts, nLeft) + nRight*dt.impurity(rightCounts, nRight)) / n
}

// impurity computes the configured impurity of a class count vector.
func (dt *DecisionTreeClassifier) impurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}

	if dt.criterion == "entropy" {
		ent := 0.0
		for _, c := range counts {
			if c == 0 {
				continue
			}
			p := c / n
			ent -= p * math.Log2(p)
		}
		return ent
	}

	// gini
	gini := 1.0
	for _, c := range counts {
		p := c / n
		gini -= p * p
	}
	return gini
}

// normalizeImportances rescales accumulated impurity decreases to unit L1 norm.
func (dt *DecisionTreeClassifier) normalizeImportances() {
	sum := 0.0
	for _, v := range dt.featureImportances_ {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for i := range dt.featureImportances_ {
		dt.featureImportances_[i] /= sum
	}
}

// leaf returns the index of the leaf node sample i of X lands in.
func (dt *DecisionTreeClassifier) leaf(X mat.Matrix, i int) int {
	id := 0
	for !dt.nodes[id].isLeaf() {
		if X.At(i, dt.nodes[id].feature) <= dt.nodes[id].threshold {
			id = dt.nodes[id].left
		} else {
			id = dt.nodes[id].right
		}
	}
	return id
}

// Predict returns the majority class of the leaf each sample reaches.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Predict"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, scierrors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		counts := dt.nodes[dt.leaf(X, i)].counts
		best := 0
		for k := 1; k < dt.nClasses_; k++ {
			if counts[k] > counts[best] {
				best = k
			}
		}
		predictions.Set(i, 0, float64(dt.classes_[best]))
	}

	return predictions, nil
}

// PredictProba returns the class distribution of the leaf each sample
// reaches. Columns follow Classes() order.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, scierrors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures_, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		counts := dt.nodes[dt.leaf(X, i)].counts
		total := 0.0
		for _, c := range counts {
			total += c
		}
		for k := 0; k < dt.nClasses_; k++ {
			probas.Set(i, k, counts[k]/total)
		}
	}

	return probas, nil
}

// Apply returns the leaf node index each sample reaches. Leaf indices are
// positions in the fitted tree's node array and remain stable for the
// lifetime of the fitted model.
func (dt *DecisionTreeClassifier) Apply(X mat.Matrix) ([]int, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Apply"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, scierrors.NewDimensionError("DecisionTreeClassifier.Apply", dt.nFeatures_, nFeatures, 1)
	}

	leaves := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		leaves[i] = dt.leaf(X, i)
	}
	return leaves, nil
}

// Classes returns the sorted unique class labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []int {
	out := make([]int, len(dt.classes_))
	copy(out, dt.classes_)
	return out
}

// GetFeatureImportances returns the normalized impurity-decrease importance
// of each feature. The vector sums to 1 unless the tree has no splits.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	out := make([]float64, len(dt.featureImportances_))
	copy(out, dt.featureImportances_)
	return out
}

// GetDepth returns the depth of the fitted tree. A root-only tree has depth 0.
func (dt *DecisionTreeClassifier) GetDepth() int {
	return dt.depth_
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	n := 0
	for i := range dt.nodes {
		if dt.nodes[i].isLeaf() {
			n++
		}
	}
	return n
}

// IsFitted returns whether the tree has been fitted.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Score returns the mean accuracy on the given test data and labels.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0.0
	}

	nSamples, _ := X.Dims()
	correct := 0

	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	return float64(correct) / float64(nSamples)
}

// GetParams returns the model hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			v, ok := value.(string)
			if !ok {
				return scierrors.NewValidationError(key, "must be a string", value)
			}
			dt.criterion = v
		case "max_depth":
			v, ok := value.(int)
			if !ok {
				return scierrors.NewValidationError(key, "must be an int", value)
			}
			dt.maxDepth = v
		case "min_samples_split":
			v, ok := value.(int)
			if !ok {
				return scierrors.NewValidationError(key, "must be an int", value)
			}
			dt.minSamplesSplit = v
		case "min_samples_leaf":
			v, ok := value.(int)
			if !ok {
				return scierrors.NewValidationError(key, "must be an int", value)
			}
			dt.minSamplesLeaf = v
		case "max_features":
			v, ok := value.(int)
			if !ok {
				return scierrors.NewValidationError(key, "must be an int", value)
			}
			dt.maxFeatures = v
		case "random_state":
			v, ok := value.(int64)
			if !ok {
				return scierrors.NewValidationError(key, "must be an int64", value)
			}
			dt.randomState = v
		default:
			return scierrors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}
