package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that can be trained on labeled data.
type Fitter interface {
	// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that produce hard predictions.
type Predictor interface {
	// Predict returns one predicted label per sample as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaPredictor is the interface for models that produce class probability estimates.
type ProbaPredictor interface {
	// PredictProba returns an n_samples x n_classes probability matrix. Columns
	// follow the order of the model's Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// FeatureImporter is the interface for models that report per-feature
// contribution scores.
type FeatureImporter interface {
	// GetFeatureImportances returns one non-negative score per feature.
	GetFeatureImportances() []float64
}

// Classifier combines the capabilities every classification estimator in this
// library exposes. Any concrete model implementing it is substitutable as an
// ensemble member.
type Classifier interface {
	Fitter
	Predictor
	ProbaPredictor

	// Classes returns the sorted, duplicate-free class labels observed during fitting.
	Classes() []int
}

// LeafApplier is the interface for tree-structured models that can report the
// terminal node each sample lands in.
type LeafApplier interface {
	// Apply returns one leaf index per sample.
	Apply(X mat.Matrix) ([]int, error)
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow hyperparameter modification.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
