package internal

import (
	"errors"
	"fmt"
)

// StorageError represents errors reading or writing a storage slot
type StorageError struct {
	Slot string
	Op   string // "open", "read", "write", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Slot, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "store", "config", "locales"
	Key    string // slot name or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	ScriptGenerationFailed ErrorKind = "ScriptGenerationFailed"
	AudioSynthesisFailed   ErrorKind = "AudioSynthesisFailed"
)

// PipelineError is the only error shape that leaves the remote clients.
// Message is safe to show to the user; Err keeps the transport cause for logs.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewScriptGenerationError wraps cause as a ScriptGenerationFailed error.
func NewScriptGenerationError(cause error) *PipelineError {
	return &PipelineError{Kind: ScriptGenerationFailed, Message: "Failed to generate hypnosis script", Err: cause}
}

// NewAudioSynthesisError wraps cause as an AudioSynthesisFailed error.
func NewAudioSynthesisError(cause error) *PipelineError {
	return &PipelineError{Kind: AudioSynthesisFailed, Message: "Failed to generate audio", Err: cause}
}

// KindOf returns the ErrorKind of err, or "" if err is not a PipelineError.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
