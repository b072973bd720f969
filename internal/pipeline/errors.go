// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/pdiddy/equity-research/internal/fetch"
	"github.com/pdiddy/equity-research/pkg/types"
)

// Stage names a pipeline step in errors and logs.
type Stage string

const (
	StageAnalyze    Stage = "analyze"
	StageSearch     Stage = "search"
	StageFetch      Stage = "fetch"
	StageValidate   Stage = "validate"
	StageSynthesize Stage = "synthesize"
)

var (
	// ErrNoURLs is returned in manual mode when no URL was supplied.
	ErrNoURLs = errors.New("manual mode requires at least one URL")

	// ErrUnknownMode is returned for a mode other than autonomous or manual.
	ErrUnknownMode = errors.New("unknown research mode")
)

// StageError wraps a failure that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NoSourcesError reports that no source document could be loaded.
type NoSourcesError struct {
	Mode      types.Mode
	Attempted int

	// Dropped lists why each attempted URL failed.
	Dropped []*fetch.FetchError
}

func (e *NoSourcesError) Error() string {
	if e.Mode == types.ModeManual {
		return fmt.Sprintf("none of the %d provided URL(s) could be loaded; check that they are reachable", e.Attempted)
	}
	return fmt.Sprintf("no sources could be loaded after trying %d URL(s); rerun in manual mode with --url to supply sources", e.Attempted)
}
