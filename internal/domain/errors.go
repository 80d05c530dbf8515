package domain

import (
	"errors"
	"fmt"
)

// ErrorType tags an error with where in the pipeline it originated.
type ErrorType string

const (
	// ErrorTypeLoad means the document could not be opened at all. Fatal for
	// that document; no page tasks are dispatched.
	ErrorTypeLoad ErrorType = "load"
	// ErrorTypeExtraction means a single page could not be parsed. Recovered
	// locally as an error-stub PageResult.
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeInference means the vision call failed. Recovered locally; the
	// page degrades to text-only.
	ErrorTypeInference ErrorType = "inference"
	// ErrorTypeAssembly means the scheduler contract was violated (page count
	// mismatch). Fatal for the document.
	ErrorTypeAssembly ErrorType = "assembly"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
)

// DomainError is an error with pipeline context. Page is the zero-based page
// index for page-scoped errors and -1 otherwise.
type DomainError struct {
	Type    ErrorType
	Page    int
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	var s string
	if e.Page >= 0 {
		s = fmt.Sprintf("[%s] page %d: %s", e.Type, e.Page, e.Message)
	} else {
		s = fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a document-scoped domain error.
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{Type: errType, Page: -1, Message: message, Err: err}
}

// NewPageError creates a page-scoped domain error.
func NewPageError(errType ErrorType, page int, message string, err error) *DomainError {
	return &DomainError{Type: errType, Page: page, Message: message, Err: err}
}

func LoadError(message string, err error) *DomainError {
	return NewError(ErrorTypeLoad, message, err)
}

func ExtractionError(page int, message string, err error) *DomainError {
	return NewPageError(ErrorTypeExtraction, page, message, err)
}

func InferenceError(message string, err error) *DomainError {
	return NewError(ErrorTypeInference, message, err)
}

func AssemblyError(message string, err error) *DomainError {
	return NewError(ErrorTypeAssembly, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// IsType reports whether err (or anything it wraps) is a DomainError of the
// given type.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}
