// Package testutil provides test utilities for structured logging.
package testutil

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) hclog.Logger {
	t.Helper()
	return hclog.New(&hclog.LoggerOptions{
		Name:            t.Name(),
		Level:           hclog.Trace,
		Output:          testWriter{t},
		DisableTime:     true,
		IncludeLocation: false,
	})
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
