package tree

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

func TestDecisionTreeClassifierApply(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	leaves, err := dt.Apply(X)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(leaves) != 6 {
		t.Fatalf("expected 6 leaf ids, got %d", len(leaves))
	}

	for i, id := range leaves {
		if id < 0 || id >= len(dt.nodes) {
			t.Fatalf("leaf id %d out of node range [0, %d)", id, len(dt.nodes))
		}
		if !dt.nodes[id].isLeaf() {
			t.Errorf("sample %d landed on internal node %d", i, id)
		}
	}

	// Samples of the same class side share a leaf; the two sides do not.
	if leaves[0] != leaves[1] || leaves[1] != leaves[2] {
		t.Error("left-side samples landed in different leaves")
	}
	if leaves[3] != leaves[4] || leaves[4] != leaves[5] {
		t.Error("right-side samples landed in different leaves")
	}
	if leaves[0] == leaves[3] {
		t.Error("both classes landed in the same leaf")
	}
}

func TestDecisionTreeClassifierApplyNotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	if _, err := dt.Apply(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("Apply before fit should fail")
	}
}

func TestDecisionTreeClassifierClasses(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{5, 2, 5, 9, 2, 9})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	classes := dt.Classes()
	want := []int{2, 5, 9}
	if len(classes) != len(want) {
		t.Fatalf("expected %d classes, got %d", len(want), len(classes))
	}
	for i, c := range want {
		if classes[i] != c {
			t.Errorf("classes[%d] = %d, want %d", i, classes[i], c)
		}
	}
}

func TestDecisionTreeClassifierMaxFeaturesDeterminism(t *testing.T) {
	X := mat.NewDense(8, 3, []float64{
		1, 5, 0,
		2, 6, 1,
		3, 5, 0,
		4, 6, 1,
		10, 5, 0,
		11, 6, 1,
		12, 5, 0,
		13, 6, 1,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	fit := func() mat.Matrix {
		dt := NewDecisionTreeClassifier(
			WithMaxFeatures(2),
			WithRandomState(21),
		)
		if err := dt.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		pred, err := dt.Predict(X)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return pred
	}

	if !mat.Equal(fit(), fit()) {
		t.Error("same seed produced different trees under feature subsampling")
	}
}

func TestDecisionTreeClassifierSetParamsWrongType(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"int64 for max_depth", map[string]interface{}{"max_depth": int64(5)}},
		{"string for min_samples_split", map[string]interface{}{"min_samples_split": "2"}},
		{"int for criterion", map[string]interface{}{"criterion": 1}},
		{"int for random_state", map[string]interface{}{"random_state": 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewDecisionTreeClassifier()

			var valErr *scierrors.ValidationError
			if err := dt.SetParams(tt.params); !scierrors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestDecisionTreeClassifierConstantFeatureBecomesLeaf(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{3, 3, 3, 3})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if got := dt.GetNLeaves(); got != 1 {
		t.Errorf("GetNLeaves() = %d, want 1 (no valid split exists)", got)
	}

	proba, err := dt.PredictProba(mat.NewDense(1, 1, []float64{3}))
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	if proba.At(0, 0) != 0.5 || proba.At(0, 1) != 0.5 {
		t.Errorf("leaf distribution = [%v, %v], want [0.5, 0.5]", proba.At(0, 0), proba.At(0, 1))
	}
}
