// Package errors provides centralized error handling with category metadata
// for the capture and analysis pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	// Stream-level failures, fatal for the current run.
	CategoryAcquisition ErrorCategory = "audio-acquisition" // hardware/file read failure
	CategoryFormat      ErrorCategory = "audio-format"      // invalid sample rate or bit depth

	// Unit-level failures, absorbed and counted, run continues.
	CategorySequence      ErrorCategory = "frame-sequence" // out-of-order or malformed timestamps
	CategoryAudioAnalysis ErrorCategory = "audio-analysis" // diarization failure or timeout

	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryNetwork       ErrorCategory = "network"
	CategoryBuffer        ErrorCategory = "capture-buffer"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryGeneric       ErrorCategory = "generic"
)

// Sentinel errors for the pipeline error taxonomy. Use the matching
// predicate helpers below instead of comparing categories directly.
var (
	ErrAcquisition    = stderrors.New("audio acquisition failed")
	ErrSequence       = stderrors.New("frame out of sequence")
	ErrFormat         = stderrors.New("invalid audio format")
	ErrAnalysisFailed = stderrors.New("segment analysis failed")
)

// ComponentUnknown is used when the component has not been set.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with component, category and context metadata.
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where error occurred
	Category  ErrorCategory  // Error category for grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches either the wrapped error chain or another EnhancedError
// of the same category.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetCategory returns the error category.
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the error context to prevent external
// modification.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new builder from a formatted error.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Timing adds performance timing context.
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["operation"] = operation
	eb.context["duration_ms"] = duration.Milliseconds()
	return eb
}

// Build creates the EnhancedError.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	return ee
}

// Standard library passthroughs so callers only import this package.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// NewStd creates a plain sentinel error without enhancement.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Join wraps stderrors.Join.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Predicate helpers for the pipeline error taxonomy.

// IsAcquisitionError reports a hardware or file read failure. These are
// fatal for the current run; the session terminates with partial results.
func IsAcquisitionError(err error) bool {
	return Is(err, ErrAcquisition) || hasCategory(err, CategoryAcquisition)
}

// IsSequenceError reports an out-of-order or malformed frame timestamp.
// The offending frame is dropped and the run continues.
func IsSequenceError(err error) bool {
	return Is(err, ErrSequence) || hasCategory(err, CategorySequence)
}

// IsFormatError reports an invalid sample rate or bit depth. Fatal at run
// start, recoverable between runs.
func IsFormatError(err error) bool {
	return Is(err, ErrFormat) || hasCategory(err, CategoryFormat)
}

// IsAnalysisFailure reports an external diarization failure or timeout.
// The segment is marked unanalyzed and the run continues.
func IsAnalysisFailure(err error) bool {
	return Is(err, ErrAnalysisFailed) || hasCategory(err, CategoryAudioAnalysis)
}

func hasCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	if As(err, &ee) {
		return ee.Category == category
	}
	return false
}
