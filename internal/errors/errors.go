package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/trackly/internal/logger"
	"github.com/julianstephens/trackly/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// ExitCode maps an error to a process exit status: 0 for nil, 2 for
// missing entities, 3 for storage failures and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, storage.ErrNotFound):
		return 2
	case stderrors.Is(err, storage.ErrStorageFailure):
		return 3
	default:
		return 1
	}
}

// Fatal logs an error and exits the program
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}
