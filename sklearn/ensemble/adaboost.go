package ensemble

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goensemble/core/model"
	"github.com/YuminosukeSato/goensemble/metrics"
	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
	"github.com/YuminosukeSato/goensemble/pkg/log"
	"github.com/YuminosukeSato/goensemble/sklearn/tree"
)

// boostStop identifies how a boosting run left its accumulation loop.
type boostStop int

const (
	// stopExhausted: the round budget ran out, or a resample missed a class.
	stopExhausted boostStop = iota
	// stopConverged: a member reached zero weighted error; further rounds
	// are unnecessary.
	stopConverged
	// stopDegenerate: the observation weight mass collapsed to zero.
	stopDegenerate
)

func (s boostStop) String() string {
	switch s {
	case stopConverged:
		return "converged"
	case stopDegenerate:
		return "degenerate"
	default:
		return "exhausted"
	}
}

// AdaBoostClassifier implements multiclass adaptive boosting with the
// SAMME.R probability-margin formulation. Each round fits a fresh weak
// learner on a weighted resample of the training data and reweights the
// observations by the member's class-probability predictions.
// Compatible with scikit-learn's AdaBoostClassifier(algorithm="SAMME.R").
type AdaBoostClassifier struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	nEstimators int                          // Maximum number of boosting rounds
	buildBase   func(seed int64) WeakLearner // Fresh weak learner per round
	randomState int64                        // Root random seed

	// Model parameters
	estimators_         []WeakLearner
	classes_            []int
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
	observationWeights_ []float64 // Final per-sample weights, sum 1
	stop_               boostStop
}

// AdaBoostOption is a functional option for AdaBoostClassifier.
type AdaBoostOption func(*AdaBoostClassifier)

// NewAdaBoostClassifier creates a new AdaBoostClassifier. The root seed is
// mandatory; resampling and member seeding derive from it, so repeated fits
// with the same seed retain identical member sequences. The default base
// estimator is a depth-1 decision tree (a stump).
func NewAdaBoostClassifier(randomState int64, opts ...AdaBoostOption) *AdaBoostClassifier {
	ab := &AdaBoostClassifier{
		state:       model.NewStateManager(),
		nEstimators: 50,
		randomState: randomState,
	}
	ab.buildBase = func(seed int64) WeakLearner {
		return tree.NewDecisionTreeClassifier(
			tree.WithMaxDepth(1),
			tree.WithRandomState(seed),
		)
	}

	for _, opt := range opts {
		opt(ab)
	}

	return ab
}

// WithBoostNEstimators sets the maximum number of boosting rounds.
func WithBoostNEstimators(n int) AdaBoostOption {
	return func(ab *AdaBoostClassifier) {
		ab.nEstimators = n
	}
}

// WithBaseEstimator sets the factory used to construct a fresh weak learner
// each round. The factory receives a deterministic per-round seed.
func WithBaseEstimator(build func(seed int64) WeakLearner) AdaBoostOption {
	return func(ab *AdaBoostClassifier) {
		ab.buildBase = build
	}
}

// codeMatrix builds the SAMME.R class code matrix: each sample's row is +1
// at its true class index and -1/(K-1) elsewhere. Computed once per fit and
// read-only for the whole run.
func codeMatrix(yIdx []int, nClasses int) [][]float64 {
	off := -1.0 / float64(nClasses-1)
	code := make([][]float64, len(yIdx))
	for i, k := range yIdx {
		row := make([]float64, nClasses)
		for j := range row {
			row[j] = off
		}
		row[k] = 1
		code[i] = row
	}
	return code
}

// containsAllClasses reports whether the resampled labels cover every class.
func containsAllClasses(yIdx, indices []int, nClasses int) bool {
	seen := make([]bool, nClasses)
	found := 0
	for _, i := range indices {
		if !seen[yIdx[i]] {
			seen[yIdx[i]] = true
			found++
			if found == nClasses {
				return true
			}
		}
	}
	return false
}

// weightedError returns the weight mass of samples whose hard prediction
// (argmax probability) disagrees with the true label, divided by the total
// weight mass.
func weightedError(weights []float64, proba *mat.Dense, yIdx []int) float64 {
	_, nClasses := proba.Dims()

	var errSum, total float64
	for i, w := range weights {
		total += w

		best := 0
		for k := 1; k < nClasses; k++ {
			if proba.At(i, k) > proba.At(i, best) {
				best = k
			}
		}
		if best != yIdx[i] {
			errSum += w
		}
	}
	if total == 0 {
		return 0
	}
	return errSum / total
}

// updateObservationWeights applies the SAMME.R multiplicative update
// w_i *= exp(-((K-1)/K) * sum_k code[i,k]*log(proba[i,k])) in place, clips
// the result away from 0, and renormalizes to sum 1. It returns the
// pre-normalization weight mass; a zero return means the distribution
// degenerated and the caller must stop boosting.
func updateObservationWeights(weights []float64, code [][]float64, proba *mat.Dense, nClasses int) float64 {
	factor := float64(nClasses-1) / float64(nClasses)
	for i := range weights {
		inner := 0.0
		for k := 0; k < nClasses; k++ {
			inner += code[i][k] * math.Log(proba.At(i, k))
		}
		weights[i] *= math.Exp(-factor * inner)
	}

	// Clip before summing; the floor keeps later resampling defined.
	scierrors.ClipToFloor(weights, scierrors.ProbabilityFloor)
	mass := floats.Sum(weights)
	if mass == 0 {
		return 0
	}
	floats.Scale(1/mass, weights)
	return mass
}

// Fit runs the boosting loop on X (n_samples x n_features) and integer
// labels y (n_samples x 1). The loop accumulates members until the weighted
// error hits zero (converged), the weight mass collapses (degenerate), a
// resample misses a class, or the round budget is exhausted. Early
// termination is reported through the retained member count, not an error.
func (ab *AdaBoostClassifier) Fit(X, y mat.Matrix) error {
	if err := validateFitInputs("AdaBoostClassifier", X, y); err != nil {
		return err
	}
	if ab.nEstimators <= 0 {
		return scierrors.NewValidationError("n_estimators", "must be positive", ab.nEstimators)
	}

	nSamples, nFeatures := X.Dims()
	classes := extractClasses(y)
	if len(classes) < 2 {
		return scierrors.NewValidationError("y", "boosting requires at least 2 classes", len(classes))
	}

	ab.classes_ = classes
	ab.nClasses_ = len(classes)
	ab.nFeatures_ = nFeatures

	classIndex := classIndexMap(classes)
	yIdx := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		yIdx[i] = classIndex[int(y.At(i, 0))]
	}
	code := codeMatrix(yIdx, ab.nClasses_)

	weights := make([]float64, nSamples)
	for i := range weights {
		weights[i] = 1 / float64(nSamples)
	}

	rng := rand.New(rand.NewPCG(uint64(ab.randomState), uint64(ab.randomState)^seedStream))

	logger := log.GetLogger()
	logger.Debug("fitting boosting ensemble",
		log.ModelNameKey, "AdaBoostClassifier",
		log.OperationKey, "fit",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, ab.nClasses_,
		log.EstimatorsKey, ab.nEstimators,
	)

	var estimators []WeakLearner
	importances := make([]float64, nFeatures)
	stop := stopExhausted

	for round := 0; round < ab.nEstimators; round++ {
		indices := weightedIndices(weights, rng, nSamples)

		// The multiclass code-matrix math is undefined for a member that
		// never saw some class, so a short resample ends the whole run.
		if !containsAllClasses(yIdx, indices, ab.nClasses_) {
			scierrors.Warn(scierrors.NewConvergenceWarning("AdaBoostClassifier", round,
				"weighted resample did not contain all classes"))
			stop = stopExhausted
			break
		}

		learner := ab.buildBase(int64(rng.Uint64()))
		Xb, yb := takeRows(X, y, indices)
		if err := learner.Fit(Xb, yb); err != nil {
			return err
		}

		proba, err := alignedProba(learner, X, classIndex, ab.nClasses_)
		if err != nil {
			return err
		}

		estErr := weightedError(weights, proba, yIdx)

		estimators = append(estimators, learner)
		if imp := learner.GetFeatureImportances(); len(imp) == nFeatures {
			floats.Add(importances, imp)
		}

		if estErr == 0 {
			// This member alone perfectly fits the weighted sample.
			stop = stopConverged
			break
		}

		if updateObservationWeights(weights, code, proba, ab.nClasses_) == 0 {
			stop = stopDegenerate
			break
		}
	}

	if sum := floats.Sum(importances); sum > 0 {
		floats.Scale(1/sum, importances)
	}

	ab.estimators_ = estimators
	ab.featureImportances_ = importances
	ab.observationWeights_ = weights
	ab.stop_ = stop

	logger.Debug("boosting finished",
		log.ModelNameKey, "AdaBoostClassifier",
		log.EstimatorsKey, len(estimators),
		log.StopReasonKey, stop.String(),
	)

	ab.state.SetDimensions(nFeatures, nSamples)
	ab.state.SetFitted()
	return nil
}

// DecisionFunction returns the SAMME.R margin matrix: the per-member scores
// (K-1) * (log p - mean_k log p) summed across members and divided by the
// member count. The centering keeps class scores comparable across members
// of different confidence scales.
func (ab *AdaBoostClassifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := ab.state.RequireFitted("AdaBoostClassifier", "DecisionFunction"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != ab.nFeatures_ {
		return nil, scierrors.NewDimensionError("AdaBoostClassifier.DecisionFunction", ab.nFeatures_, nFeatures, 1)
	}
	if len(ab.estimators_) == 0 {
		return nil, scierrors.NewValueError("AdaBoostClassifier.DecisionFunction", "ensemble retained no members")
	}

	classIndex := classIndexMap(ab.classes_)
	df := mat.NewDense(nSamples, ab.nClasses_, nil)
	logp := make([]float64, ab.nClasses_)

	for _, learner := range ab.estimators_ {
		proba, err := alignedProba(learner, X, classIndex, ab.nClasses_)
		if err != nil {
			return nil, err
		}

		for i := 0; i < nSamples; i++ {
			for k := 0; k < ab.nClasses_; k++ {
				logp[k] = math.Log(proba.At(i, k))
			}
			mean := floats.Sum(logp) / float64(ab.nClasses_)
			for k := 0; k < ab.nClasses_; k++ {
				df.Set(i, k, df.At(i, k)+float64(ab.nClasses_-1)*(logp[k]-mean))
			}
		}
	}

	df.Scale(1/float64(len(ab.estimators_)), df)
	return df, nil
}

// Predict returns the class with the largest margin for each sample.
func (ab *AdaBoostClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	df, err := ab.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := df.Dims()
	out := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < ab.nClasses_; k++ {
			if df.At(i, k) > df.At(i, best) {
				best = k
			}
		}
		out.Set(i, 0, float64(ab.classes_[best]))
	}
	return out, nil
}

// PredictProba converts margins back to probabilities via
// exp(decision_function / (K-1)), renormalized so each row sums to 1.
func (ab *AdaBoostClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	df, err := ab.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := df.Dims()
	probas := mat.NewDense(nSamples, ab.nClasses_, nil)
	scale := 1 / float64(ab.nClasses_-1)

	for i := 0; i < nSamples; i++ {
		sum := 0.0
		for k := 0; k < ab.nClasses_; k++ {
			v := math.Exp(df.At(i, k) * scale)
			probas.Set(i, k, v)
			sum += v
		}
		if sum <= 0 {
			uniform := 1 / float64(ab.nClasses_)
			for k := 0; k < ab.nClasses_; k++ {
				probas.Set(i, k, uniform)
			}
			continue
		}
		for k := 0; k < ab.nClasses_; k++ {
			probas.Set(i, k, probas.At(i, k)/sum)
		}
	}

	return probas, nil
}

// Estimators returns the ordered list of retained members.
func (ab *AdaBoostClassifier) Estimators() []WeakLearner {
	out := make([]WeakLearner, len(ab.estimators_))
	copy(out, ab.estimators_)
	return out
}

// Classes returns the sorted unique class labels seen during fitting.
func (ab *AdaBoostClassifier) Classes() []int {
	out := make([]int, len(ab.classes_))
	copy(out, ab.classes_)
	return out
}

// FeatureImportances returns the ensemble's normalized feature importance
// vector. It sums to 1 after a fit that retained at least one member with
// splits.
func (ab *AdaBoostClassifier) FeatureImportances() []float64 {
	out := make([]float64, len(ab.featureImportances_))
	copy(out, ab.featureImportances_)
	return out
}

// StopReason reports why the last boosting run terminated:
// "converged", "degenerate", or "exhausted".
func (ab *AdaBoostClassifier) StopReason() string {
	return ab.stop_.String()
}

// IsFitted returns whether the ensemble has been fitted.
func (ab *AdaBoostClassifier) IsFitted() bool {
	return ab.state.IsFitted()
}

// Score returns the mean accuracy on the given test data and labels.
func (ab *AdaBoostClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := ab.Predict(X)
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
func (ab *AdaBoostClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators": ab.nEstimators,
		"random_state": ab.randomState,
	}
}
