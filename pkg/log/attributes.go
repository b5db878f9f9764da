// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys consistently across estimators enables structured log
// analysis and filtering (e.g. all "fit" operations of one model type).
// The keys follow a hierarchical naming convention ("model.name",
// "data.samples") matching common log pipelines.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "RandomForestClassifier", "AdaBoostClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "predict_proba", "apply", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "ensemble", "tree", "metrics"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"
)

// Ensemble training context.
const (
	// EstimatorsKey indicates the configured or retained number of ensemble members.
	EstimatorsKey = "ensemble.estimators"

	// RoundKey indicates the current boosting round.
	RoundKey = "ensemble.round"

	// StopReasonKey records why a boosting run terminated.
	// Values: "converged", "degenerate", "exhausted"
	StopReasonKey = "ensemble.stop_reason"

	// StrategyKey records the execution strategy used for member fitting.
	// Values: "sequential", "parallel"
	StrategyKey = "ensemble.strategy"
)
