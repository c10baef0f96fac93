// Package diag defines the error objects produced by the graph core. Every
// fatal condition is described by an Error carrying a failure kind, a
// human-readable summary, an optional source location, and an optional chain
// of sub-errors with their own locations (used to blame both sides of a
// duplicate definition, or every edge of a cycle).
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Kind classifies a failure.
type Kind int

const (
	// DuplicateDefinition means two items were declared with the same label.
	DuplicateDefinition Kind = iota
	// TypeConflict means a label was observed with two different item types.
	TypeConflict
	// MissingDependency means a referenced label was never defined.
	MissingDependency
	// CircularDependency means the dependency graph contains a cycle.
	CircularDependency
	// ProtocolMismatch means a file was loaded via both the blocking and
	// non-blocking load protocols.
	ProtocolMismatch
	// LoadFailure means a build file could not be read or parsed.
	LoadFailure
	// FinalizationFailure means an item's post-resolution hook failed.
	FinalizationFailure
)

// String returns the short human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case DuplicateDefinition:
		return "duplicate definition"
	case TypeConflict:
		return "type conflict"
	case MissingDependency:
		return "missing dependency"
	case CircularDependency:
		return "circular dependency"
	case ProtocolMismatch:
		return "load protocol mismatch"
	case LoadFailure:
		return "load failure"
	case FinalizationFailure:
		return "finalization failure"
	}
	return "unknown failure"
}

// Error is a fatal condition detected by the graph core.
type Error struct {
	Kind    Kind
	Summary string
	// Detail is an optional longer explanation, rendered after the summary.
	Detail string
	// Subject is the primary source location to blame, if known.
	Subject *hcl.Range
	// Sub holds secondary errors with their own locations.
	Sub []*Error
}

// New creates an Error. subject may be nil when no source location applies.
func New(kind Kind, subject *hcl.Range, summary, detail string) *Error {
	return &Error{Kind: kind, Summary: summary, Detail: detail, Subject: subject}
}

// Newf creates an Error with a formatted summary and no detail.
func Newf(kind Kind, subject *hcl.Range, format string, args ...any) *Error {
	return New(kind, subject, fmt.Sprintf(format, args...), "")
}

// WithSub appends secondary errors and returns the receiver for chaining.
func (e *Error) WithSub(sub ...*Error) *Error {
	e.Sub = append(e.Sub, sub...)
	return e
}

// Error implements the error interface. The output is one line per error,
// sub-errors indented beneath their parent.
func (e *Error) Error() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e *Error) write(sb *strings.Builder, depth int) {
	if depth > 0 {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", depth))
	}
	if e.Subject != nil {
		fmt.Fprintf(sb, "%s:%d:%d: ", e.Subject.Filename, e.Subject.Start.Line, e.Subject.Start.Column)
	}
	fmt.Fprintf(sb, "%s: %s", e.Kind, e.Summary)
	if e.Detail != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(e.Detail)
	}
	for _, sub := range e.Sub {
		sub.write(sb, depth+1)
	}
}

// FromDiagnostics converts non-empty HCL diagnostics into an Error of the
// given kind. The first diagnostic becomes the primary error; the rest are
// attached as sub-errors. Returns nil if diags carries no errors.
func FromDiagnostics(kind Kind, diags hcl.Diagnostics) *Error {
	var errs []*Error
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		errs = append(errs, New(kind, d.Subject, d.Summary, d.Detail))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs[0].WithSub(errs[1:]...)
}

// KindOf extracts the failure kind from err. ok is false when err does not
// wrap a diag.Error.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
