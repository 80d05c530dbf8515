package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainErrorFormatting(t *testing.T) {
	pageErr := ExtractionError(3, "text extraction failed", errors.New("corrupt stream"))
	msg := pageErr.Error()
	if !strings.Contains(msg, "[extraction]") {
		t.Errorf("missing type tag in %q", msg)
	}
	if !strings.Contains(msg, "page 3") {
		t.Errorf("missing page index in %q", msg)
	}
	if !strings.Contains(msg, "corrupt stream") {
		t.Errorf("missing cause in %q", msg)
	}

	docErr := LoadError("cannot open file", nil)
	if strings.Contains(docErr.Error(), "page") {
		t.Errorf("document-scoped error mentions a page: %q", docErr.Error())
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := InferenceError("inference request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}

	wrapped := fmt.Errorf("processing: %w", err)
	var de *DomainError
	if !errors.As(wrapped, &de) {
		t.Fatal("DomainError not reachable via errors.As through wrapping")
	}
	if de.Type != ErrorTypeInference {
		t.Errorf("Type = %q, want %q", de.Type, ErrorTypeInference)
	}
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"matching type", LoadError("x", nil), ErrorTypeLoad, true},
		{"non-matching type", LoadError("x", nil), ErrorTypeInference, false},
		{"wrapped match", fmt.Errorf("outer: %w", AssemblyError("x", nil)), ErrorTypeAssembly, true},
		{"plain error", errors.New("x"), ErrorTypeLoad, false},
		{"nil error", nil, ErrorTypeLoad, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsType(tt.err, tt.typ); got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}
