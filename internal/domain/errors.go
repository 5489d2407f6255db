package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies one step of the generation pipeline.
type Stage string

const (
	StagePlan      Stage = "planning"
	StageBaseImage Stage = "image-generation"
	StageText      Stage = "text-generation"
	StageOverlay   Stage = "text-overlay"
	StageSave      Stage = "save"
)

// ErrEmptyResponse is returned when a model call succeeds but carries no
// usable content.
var ErrEmptyResponse = errors.New("empty model response")

// ErrNoImageData is returned when a response that must carry image bytes
// has none. The overlay stage treats it as a signal to try the
// regeneration fallback.
var ErrNoImageData = errors.New("no image data in response")

// ConfigError reports missing startup configuration. It is fatal: the
// pipeline never starts and no network call is made when one is returned.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// StageError reports a pipeline stage that failed after its retry budget
// was spent. It isolates the failure to a single meme index.
type StageError struct {
	Stage Stage
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed for meme %d: %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ParseError reports a malformed API response. Callers recover with
// fallback defaults where the field is optional; for essential fields the
// error is promoted to a StageError by the orchestrator.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
