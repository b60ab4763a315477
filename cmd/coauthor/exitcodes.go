package main

import (
	"errors"

	"github.com/matsen/coauthor/internal/fetch"
	"github.com/matsen/coauthor/internal/listing"
	"github.com/matsen/coauthor/internal/pipeline"
	"github.com/matsen/coauthor/internal/store"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (missing repository, invalid config)
	ExitDataError    = 3 // Data error (structural listing error, missing stage input, clean conflict)
	ExitNetworkError = 4 // Listing download failed
)

// exitCodeFor maps a pipeline error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case listing.IsStructural(err):
		return ExitDataError
	case errors.Is(err, store.ErrPeriodNotFound), errors.Is(err, pipeline.ErrCleanConflict):
		return ExitDataError
	case fetch.IsNetwork(err):
		return ExitNetworkError
	default:
		return ExitError
	}
}
