package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when an AI feature is used without a configured generator.
var ErrNotConfigured = errors.New("ai assistant is not configured")

// UpstreamError reports a failed call to the generation service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("upstream %s failed", e.Op)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// GenerationError wraps any failure of a feature orchestration.
type GenerationError struct {
	Feature string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Feature, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
