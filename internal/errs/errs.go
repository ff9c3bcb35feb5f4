// Package errs provides the structured error vocabulary shared across the
// storage and flow engine: a closed set of error Kinds plus a Diagnostic
// carrying enough context for a caller to report a user-visible failure.
package errs

import "fmt"

// Kind classifies a failure into one of the engine's error categories.
// Kinds are not Go types: every package returns a *Diagnostic wrapping one.
type Kind uint8

const (
	// InvalidData covers codec decoders and malformed inputs from
	// untrusted sources.
	InvalidData Kind = iota
	// OutOfRange covers numeric conversions and type coercions.
	OutOfRange
	// Conflict covers optimistic concurrency failures at commit.
	Conflict
	// NotFound covers missing catalog objects or missing required keys.
	NotFound
	// AlreadyExists covers name-uniqueness violations.
	AlreadyExists
	// Precondition covers misuse of a transaction (used after commit, or
	// used with the wrong operation for its kind).
	Precondition
	// Internal covers broken invariants; never swallowed.
	Internal
	// Io covers underlying persistence failures.
	Io
)

func (k Kind) String() string {
	switch k {
	case InvalidData:
		return "InvalidData"
	case OutOfRange:
		return "OutOfRange"
	case Conflict:
		return "Conflict"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case Precondition:
		return "Precondition"
	case Internal:
		return "Internal"
	case Io:
		return "Io"
	default:
		return "Unknown"
	}
}

// Diagnostic is the user-visible shape of a failure: a stable code, a
// human message, and optional source-span context.
type Diagnostic struct {
	Kind    Kind
	Code    string // stable code, e.g. "CA_005", "NUMBER_002"
	Message string
	Fragment string // source span text, when available
	Label    string
	Help     string
	Notes    []string
	cause    error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", d.Kind, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (d *Diagnostic) Unwrap() error { return d.cause }

// New constructs a Diagnostic with no wrapped cause.
func New(kind Kind, code, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Code: code, Message: message}
}

// Wrap constructs a Diagnostic that wraps an underlying error.
func Wrap(kind Kind, code, message string, cause error) *Diagnostic {
	return &Diagnostic{Kind: kind, Code: code, Message: message, cause: cause}
}

// WithFragment attaches source-span context and returns the receiver for
// chaining at the construction site.
func (d *Diagnostic) WithFragment(fragment, label string) *Diagnostic {
	d.Fragment = fragment
	d.Label = label
	return d
}

// WithHelp attaches a help string and returns the receiver for chaining.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// WithNote appends a note and returns the receiver for chaining.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// KindOf extracts the Kind from err if it is (or wraps) a *Diagnostic,
// defaulting to Internal for unrecognized errors.
func KindOf(err error) Kind {
	var d *Diagnostic
	if asDiagnostic(err, &d) {
		return d.Kind
	}
	return Internal
}

// Is reports whether err is a Diagnostic of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func asDiagnostic(err error, target **Diagnostic) bool {
	for err != nil {
		if d, ok := err.(*Diagnostic); ok {
			*target = d
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
