// Package testlog provides a logger that writes through testing.T, so output
// is attached to the test that produced it.
package testlog

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/exp/slog"
)

type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Logger returns a logger for use in tests. Records below lvl are dropped.
func Logger(t testing.TB, lvl slog.Level) log.Logger {
	h := log.NewGlogHandler(log.NewTerminalHandler(&testWriter{t: t}, false))
	h.Verbosity(lvl)
	return log.NewLogger(h)
}
