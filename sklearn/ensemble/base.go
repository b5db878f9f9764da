// Package ensemble implements meta-estimators that combine many weak
// predictive models into one stronger predictor: bagging (RandomForestClassifier)
// and adaptive boosting (AdaBoostClassifier, SAMME.R).
package ensemble

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goensemble/core/model"
	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

// WeakLearner is the capability contract an ensemble member must satisfy.
// Members are owned exclusively by the ensemble and immutable once their
// training completes.
type WeakLearner interface {
	model.Fitter
	model.Predictor
	model.ProbaPredictor
	model.FeatureImporter

	// Classes returns the sorted unique labels this member observed during
	// its own (resampled) training data; it may be a subset of the
	// ensemble's global classes.
	Classes() []int
}

// extractClasses returns the sorted unique integer labels of the first
// column of y.
func extractClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	var classes []int

	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}

	sort.Ints(classes)
	return classes
}

// classIndexMap maps each class label to its position in the sorted class vector.
func classIndexMap(classes []int) map[int]int {
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return index
}

// takeRows materializes the given rows of X and y into fresh dense matrices.
// Each member fits on its own private copy of the resampled data.
func takeRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, nFeatures := X.Dims()

	Xs := mat.NewDense(len(indices), nFeatures, nil)
	ys := mat.NewDense(len(indices), 1, nil)
	for row, i := range indices {
		for j := 0; j < nFeatures; j++ {
			Xs.Set(row, j, X.At(i, j))
		}
		ys.Set(row, 0, y.At(i, 0))
	}
	return Xs, ys
}

// alignedProba computes the member's class probabilities for X re-indexed
// into the global class ordering. A class the member never observed
// contributes probability 0 for that column. Entries are floor-clipped away
// from 0 so downstream logarithms stay finite.
func alignedProba(learner WeakLearner, X mat.Matrix, classIndex map[int]int, nClasses int) (*mat.Dense, error) {
	proba, err := learner.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := proba.Dims()
	memberClasses := learner.Classes()

	aligned := mat.NewDense(nSamples, nClasses, nil)
	for localCol, label := range memberClasses {
		globalCol, ok := classIndex[label]
		if !ok {
			return nil, scierrors.NewValueError("ensemble.alignedProba", "member predicted a class unknown to the ensemble")
		}
		for i := 0; i < nSamples; i++ {
			aligned.Set(i, globalCol, proba.At(i, localCol))
		}
	}

	for i := 0; i < nSamples; i++ {
		for k := 0; k < nClasses; k++ {
			if aligned.At(i, k) < scierrors.ProbabilityFloor {
				aligned.Set(i, k, scierrors.ProbabilityFloor)
			}
		}
	}
	return aligned, nil
}

// validateFitInputs performs the shape checks shared by both ensembles.
func validateFitInputs(modelName string, X, y mat.Matrix) error {
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return scierrors.NewValueError(modelName+".Fit", "empty training data")
	}

	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return scierrors.NewDimensionError(modelName+".Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return scierrors.NewMultiOutputError(modelName, yCols)
	}
	return nil
}
