package cli

import (
	"fmt"
	"os"
)

func logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
}

func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", args...)
	os.Exit(1)
}

// stderrLogger adapts the package-level logf/errorf helpers to
// internal/pipeline.Logger.
type stderrLogger struct{}

func (stderrLogger) Logf(format string, args ...any)   { logf(format, args...) }
func (stderrLogger) Errorf(format string, args ...any) { errorf(format, args...) }
