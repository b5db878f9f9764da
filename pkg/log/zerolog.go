package log

import (
	"io"

	"github.com/rs/zerolog"

	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

// NewWarningLogger returns a zerolog logger suitable as a sink for library
// warnings (convergence, early termination).
func NewWarningLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// RouteWarnings directs all library warnings to the given zerolog logger.
// Warning types implementing zerolog.LogObjectMarshaler are emitted as
// structured events.
func RouteWarnings(logger zerolog.Logger) {
	scierrors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
}
