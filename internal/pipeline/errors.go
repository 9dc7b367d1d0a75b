// internal/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"

	"github.com/law-makers/profilefeed/pkg/models"
)

// Common pipeline errors
var (
	ErrElementMissing = errors.New("expected element not found")
	ErrNoSession      = errors.New("browser session not available")
)

// ErrorCode classifies a failed run
type ErrorCode string

const (
	ErrCodeExtraction ErrorCode = "EXTRACTION"
	ErrCodeNavigation ErrorCode = "NAVIGATION"
	ErrCodePublish    ErrorCode = "PUBLISH"
)

// Error wraps a run failure with the section and page it happened on
type Error struct {
	Code       ErrorCode
	Message    string
	Section    models.SectionKey
	URL        string
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Section != "" {
		msg += fmt.Sprintf(" [section=%s]", e.Section)
	}
	if e.URL != "" {
		msg += fmt.Sprintf(" [url=%s]", e.URL)
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by code, otherwise defers to the underlying error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewError creates a new Error
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

// WithSection records the section being extracted
func (e *Error) WithSection(section models.SectionKey) *Error {
	e.Section = section
	return e
}

// WithURL records the page URL
func (e *Error) WithURL(url string) *Error {
	e.URL = url
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Sentinels usable with errors.Is to test a failure class.
var (
	ExtractionFailure = &Error{Code: ErrCodeExtraction}
	NavigationFailure = &Error{Code: ErrCodeNavigation}
	PublishFailure    = &Error{Code: ErrCodePublish}
)
