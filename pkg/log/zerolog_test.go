package log

import (
	"bytes"
	"strings"
	"testing"

	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

func TestRouteWarnings(t *testing.T) {
	var buf bytes.Buffer
	RouteWarnings(NewWarningLogger(&buf))
	defer scierrors.SetZerologWarnFunc(nil)

	scierrors.Warn(scierrors.NewConvergenceWarning("AdaBoostClassifier", 1, "weighted error reached zero"))

	out := buf.String()
	if !strings.Contains(out, `"algorithm":"AdaBoostClassifier"`) {
		t.Errorf("structured fields missing from warning event: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warning should be emitted at warn level: %s", out)
	}
}
