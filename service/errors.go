package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for requests that can never succeed as given
	ErrInvalidInput = errors.New("invalid input")
	// ErrRetrievalUnavailable is returned when the corpus or index cannot be queried
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrPartialDataCorruption marks a single case or finding that had to be skipped
	ErrPartialDataCorruption = errors.New("partial data corruption")
	// ErrInvalidCaseMetadata is returned for a retrieved case the scorer cannot use
	ErrInvalidCaseMetadata = fmt.Errorf("%w: invalid case metadata", ErrPartialDataCorruption)
)
