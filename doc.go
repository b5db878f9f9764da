// Package goensemble provides ensemble learning methods for Go, built around
// a scikit-learn-like estimator API.
//
// GoEnsemble implements bagging (random forests) and adaptive boosting
// (AdaBoost with the SAMME.R algorithm) on top of CART decision trees, with
// deterministic seeding so that results are reproducible across runs and
// across sequential and parallel execution.
//
// # Features
//
// - scikit-learn-like API: Fit / Predict / PredictProba with functional options
// - Deterministic: one root seed fixes every bootstrap, resample and tree
// - Parallel member fitting with identical results to sequential execution
// - Robust Error Handling: typed errors for shape, fitting-state and input problems
//
// # Installation
//
// Install GoEnsemble using go get:
//
//	go get github.com/YuminosukeSato/goensemble
//
// # Quick Start
//
// Here's a simple example of training a random forest:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goensemble/sklearn/ensemble"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // Create training data
//	    X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 10, 0, 10, 1})
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    // Create and train the forest; the root seed is mandatory
//	    clf := ensemble.NewRandomForestClassifier(42,
//	        ensemble.WithForestNEstimators(25),
//	    )
//	    if err := clf.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Make predictions
//	    predictions, err := clf.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println("Predictions:", predictions)
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - sklearn/ensemble: RandomForestClassifier and AdaBoostClassifier (SAMME.R)
//   - sklearn/tree: CART decision trees used as ensemble members
//   - metrics: Evaluation metrics (accuracy, log loss, AUC)
//   - core/model: Core interfaces and fitted-state management
//   - core/parallel: Execution strategies for member fitting
//   - pkg/errors: Typed errors and the warning system
//   - pkg/log: Structured logging helpers
//
// # Determinism
//
// Every source of randomness derives from the root seed passed to the
// constructor. Member seeds are drawn from a single stream in member order
// before any work is dispatched, so switching between sequential and
// parallel execution never changes the fitted model:
//
//	seq := ensemble.NewRandomForestClassifier(42)
//	par := ensemble.NewRandomForestClassifier(42,
//	    ensemble.WithForestExecutionStrategy(parallel.StrategyParallel),
//	)
//	// seq and par produce identical predictions after fitting on the same data.
package goensemble
