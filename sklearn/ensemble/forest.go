package ensemble

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goensemble/core/model"
	"github.com/YuminosukeSato/goensemble/core/parallel"
	"github.com/YuminosukeSato/goensemble/metrics"
	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
	"github.com/YuminosukeSato/goensemble/pkg/log"
	"github.com/YuminosukeSato/goensemble/sklearn/tree"
)

// voteThreshold is the sample count above which vote tallying is chunked
// across workers.
const voteThreshold = 512

// RandomForestClassifier implements bagging over decision trees: each member
// is trained on an independent bootstrap sample with a random feature subset
// per split, and predictions are aggregated by majority vote or probability
// averaging. Compatible with scikit-learn's RandomForestClassifier.
type RandomForestClassifier struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	nEstimators     int               // Number of trees
	criterion       string            // Split quality: "gini", "entropy"
	maxDepth        int               // Maximum tree depth, -1 for unlimited
	minSamplesSplit int               // Minimum samples required to split a node
	minSamplesLeaf  int               // Minimum samples required in each child
	maxFeatures     int               // Candidate features per split, <=0 for floor(sqrt(n_features))
	randomState     int64             // Root random seed
	strategy        parallel.Strategy // Member fitting dispatch

	// Model parameters
	estimators_         []*tree.DecisionTreeClassifier
	classes_            []int
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
}

// RandomForestOption is a functional option for RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a new RandomForestClassifier. The root
// seed is mandatory; all randomness of the forest derives from it, so two
// forests constructed with the same seed and options are identical.
func NewRandomForestClassifier(randomState int64, opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     -1,
		randomState:     randomState,
		strategy:        parallel.StrategySequential,
	}

	for _, opt := range opts {
		opt(rf)
	}

	return rf
}

// WithForestNEstimators sets the number of trees in the forest.
func WithForestNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithForestCriterion sets the split quality measure ("gini" or "entropy").
func WithForestCriterion(criterion string) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.criterion = criterion
	}
}

// WithForestMaxDepth sets the maximum depth of each tree. Negative values
// grow full trees.
func WithForestMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithForestMinSamplesSplit sets the minimum number of samples required to
// split a node.
func WithForestMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesSplit = n
	}
}

// WithForestMinSamplesLeaf sets the minimum number of samples required in a leaf.
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets the number of candidate features per split.
// Non-positive values resolve to floor(sqrt(n_features)) at fit time; any
// value is clamped into [1, n_features].
func WithForestMaxFeatures(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = n
	}
}

// WithForestExecutionStrategy selects sequential or parallel member fitting.
// Both strategies produce identical fitted forests for the same root seed.
func WithForestExecutionStrategy(strategy parallel.Strategy) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.strategy = strategy
	}
}

// resolveMaxFeatures clamps the configured max_features into [1, nFeatures],
// defaulting to floor(sqrt(nFeatures)).
func (rf *RandomForestClassifier) resolveMaxFeatures(nFeatures int) int {
	maxF := rf.maxFeatures
	if maxF <= 0 {
		maxF = int(math.Floor(math.Sqrt(float64(nFeatures))))
	}
	if maxF < 1 {
		maxF = 1
	}
	if maxF > nFeatures {
		maxF = nFeatures
	}
	return maxF
}

// Fit trains the forest on X (n_samples x n_features) and integer labels
// y (n_samples x 1). A failure in any member aborts the whole fit; no
// partial ensemble is retained.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("RandomForestClassifier", X, y); err != nil {
		return err
	}
	if rf.nEstimators <= 0 {
		return scierrors.NewValidationError("n_estimators", "must be positive", rf.nEstimators)
	}

	nSamples, nFeatures := X.Dims()
	rf.classes_ = extractClasses(y)
	rf.nClasses_ = len(rf.classes_)
	rf.nFeatures_ = nFeatures
	maxF := rf.resolveMaxFeatures(nFeatures)

	logger := log.GetLogger()
	logger.Debug("fitting forest",
		log.ModelNameKey, "RandomForestClassifier",
		log.OperationKey, "fit",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, rf.nClasses_,
		log.EstimatorsKey, rf.nEstimators,
		log.StrategyKey, rf.strategy.String(),
	)

	// Seeds are spawned in index order before dispatch, so member i draws
	// the same bootstrap sample under either execution strategy.
	seeds := spawnSeeds(rf.randomState, rf.nEstimators)

	estimators := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	err := parallel.MapOrdered(rf.strategy, rf.nEstimators, func(i int) error {
		rng := memberRand(seeds[i])
		Xb, yb := takeRows(X, y, bootstrapIndices(rng, nSamples))

		clf := tree.NewDecisionTreeClassifier(
			tree.WithCriterion(rf.criterion),
			tree.WithMaxDepth(rf.maxDepth),
			tree.WithMinSamplesSplit(rf.minSamplesSplit),
			tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
			tree.WithMaxFeatures(maxF),
			tree.WithRandomState(int64(rng.Uint64())),
		)
		if err := clf.Fit(Xb, yb); err != nil {
			return err
		}
		estimators[i] = clf
		return nil
	})
	if err != nil {
		return err
	}
	rf.estimators_ = estimators

	// Each member reports its own importance vector; one final reduction
	// avoids synchronized mutation under parallel fitting.
	importances := make([]float64, nFeatures)
	for _, clf := range rf.estimators_ {
		floats.Add(importances, clf.GetFeatureImportances())
	}
	if sum := floats.Sum(importances); sum > 0 {
		floats.Scale(1/sum, importances)
	}
	rf.featureImportances_ = importances

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// memberPredictions collects each member's output for X in member index order.
func (rf *RandomForestClassifier) memberPredictions(X mat.Matrix) ([]mat.Matrix, error) {
	preds := make([]mat.Matrix, len(rf.estimators_))
	err := parallel.MapOrdered(rf.strategy, len(rf.estimators_), func(i int) error {
		p, err := rf.estimators_[i].Predict(X)
		if err != nil {
			return err
		}
		preds[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// Predict aggregates member predictions by majority vote. Ties break toward
// the first class reaching the winning count in member-iteration order; the
// result can differ from the argmax of PredictProba when probability
// averaging smooths out the vote leader.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "Predict"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.nFeatures_ {
		return nil, scierrors.NewDimensionError("RandomForestClassifier.Predict", rf.nFeatures_, nFeatures, 1)
	}

	preds, err := rf.memberPredictions(X)
	if err != nil {
		return nil, err
	}

	classIndex := classIndexMap(rf.classes_)
	out := mat.NewDense(nSamples, 1, nil)

	parallel.ParallelizeWithThreshold(nSamples, voteThreshold, func(start, end int) {
		counts := make([]int, rf.nClasses_)
		for i := start; i < end; i++ {
			for k := range counts {
				counts[k] = 0
			}
			best := 0
			bestCount := 0
			for _, p := range preds {
				k := classIndex[int(p.At(i, 0))]
				counts[k]++
				if counts[k] > bestCount {
					bestCount = counts[k]
					best = k
				}
			}
			out.Set(i, 0, float64(rf.classes_[best]))
		}
	})

	return out, nil
}

// PredictProba returns the arithmetic mean of member class probabilities,
// re-indexed into the global class ordering. A member that never observed a
// global class contributes probability 0 for it.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.nFeatures_ {
		return nil, scierrors.NewDimensionError("RandomForestClassifier.PredictProba", rf.nFeatures_, nFeatures, 1)
	}

	classIndex := classIndexMap(rf.classes_)

	probas := make([]*mat.Dense, len(rf.estimators_))
	err := parallel.MapOrdered(rf.strategy, len(rf.estimators_), func(m int) error {
		proba, err := rf.estimators_[m].PredictProba(X)
		if err != nil {
			return err
		}

		aligned := mat.NewDense(nSamples, rf.nClasses_, nil)
		for localCol, label := range rf.estimators_[m].Classes() {
			globalCol := classIndex[label]
			for i := 0; i < nSamples; i++ {
				aligned.Set(i, globalCol, proba.At(i, localCol))
			}
		}
		probas[m] = aligned
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Final sequential reduction over members.
	avg := mat.NewDense(nSamples, rf.nClasses_, nil)
	for _, p := range probas {
		avg.Add(avg, p)
	}
	avg.Scale(1/float64(len(rf.estimators_)), avg)

	return avg, nil
}

// Apply returns, per sample, the leaf index reached in each member as an
// n_samples x n_estimators matrix.
func (rf *RandomForestClassifier) Apply(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "Apply"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.nFeatures_ {
		return nil, scierrors.NewDimensionError("RandomForestClassifier.Apply", rf.nFeatures_, nFeatures, 1)
	}

	leaves := make([][]int, len(rf.estimators_))
	err := parallel.MapOrdered(rf.strategy, len(rf.estimators_), func(m int) error {
		l, err := rf.estimators_[m].Apply(X)
		if err != nil {
			return err
		}
		leaves[m] = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(nSamples, len(rf.estimators_), nil)
	for m, l := range leaves {
		for i := 0; i < nSamples; i++ {
			out.Set(i, m, float64(l[i]))
		}
	}
	return out, nil
}

// Estimators returns the ordered list of fitted trees.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier {
	out := make([]*tree.DecisionTreeClassifier, len(rf.estimators_))
	copy(out, rf.estimators_)
	return out
}

// Classes returns the sorted unique class labels seen during fitting.
func (rf *RandomForestClassifier) Classes() []int {
	out := make([]int, len(rf.classes_))
	copy(out, rf.classes_)
	return out
}

// FeatureImportances returns the forest's normalized feature importance
// vector. It sums to 1 after a successful fit.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	out := make([]float64, len(rf.featureImportances_))
	copy(out, rf.featureImportances_)
	return out
}

// IsFitted returns whether the forest has been fitted.
func (rf *RandomForestClassifier) IsFitted() bool {
	return rf.state.IsFitted()
}

// Score returns the mean accuracy on the given test data and labels.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := rf.Predict(X)
	if err != nil {
		return 0.0
	}

	nSamples, _ := X.Dims()
	yTrue := mat.NewVecDense(nSamples, mat.Col(nil, 0, y))
	yPred := mat.NewVecDense(nSamples, mat.Col(nil, 0, predictions))

	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return 0.0
	}
	return acc
}

// GetParams returns the model hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"criterion":         rf.criterion,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"random_state":      rf.randomState,
		"execution":         rf.strategy.String(),
	}
}
