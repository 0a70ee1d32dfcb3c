package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if cse, ok := err.(*CodesearchError); ok {
		return a.exitCodeFromCategory(cse)
	}

	return 1
}

// exitCodeFromCategory maps CodesearchError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromCategory(err *CodesearchError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryFetch, CategoryClassify, CategoryListing, CategoryRestart:
		return 8 // External system error
	case CategoryStorage:
		return 11 // Local filesystem or database error
	case CategoryDaemon, CategoryProxy:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if cse, ok := err.(*CodesearchError); ok {
		if a.verbose {
			return cse.Error()
		}
		switch cse.Category {
		case CategoryConfig, CategoryValidation:
			return cse.Message
		default:
			return fmt.Sprintf("%s: %s", cse.Category, cse.Message)
		}
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog decides whether an error is also sent to the structured log.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if cse, ok := err.(*CodesearchError); ok {
		return cse.Category == CategoryInternal || cse.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with the level implied by its severity.
func (a *CLIErrorAdapter) logError(err error) {
	if cse, ok := err.(*CodesearchError); ok {
		a.logger.LogAttrs(nil, slogLevel(cse.Severity), cse.Message,
			slog.String("category", string(cse.Category)))
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

func slogLevel(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
