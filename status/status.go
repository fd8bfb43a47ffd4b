// Package status defines the small error vocabulary the scan engine and
// local loader use to report non-OK outcomes (spec section 7).
package status

import "fmt"

// Code classifies a non-OK outcome. Host-returned errors are propagated
// unchanged and are not converted into one of these codes.
type Code int

const (
	// OK means no phase produced an error.
	OK Code = iota
	// Resource means an allocation failure — the Go analogue is an error
	// from a constructor or a map/slice append that the runtime cannot
	// satisfy. Resourcef builds one; the scan engine and local loader do
	// not raise it themselves.
	Resource
	// Malformed means a descriptor failed to parse. Descriptor parsers
	// return plain errors; the local loader wraps each parse failure in a
	// Malformed Error (Malformedf) for logging.
	Malformed
	// IO means a descriptor or directory read failed.
	IO
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Resource:
		return "RESOURCE"
	case Malformed:
		return "MALFORMED"
	case IO:
		return "IO"
	default:
		return "UNKNOWN"
	}
}

// Error tags a Code with the identifier, version, and/or path of the
// plug-in it concerns, per spec section 7's "every non-OK path emits a
// localized error message tagged with the offending identifier, version,
// and/or path". This module does not localize messages itself — it
// attaches structured fields a host-side logger can localize or render.
type Error struct {
	Code       Code
	Identifier string
	Version    string
	Path       string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.tag(), e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.tag())
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) tag() string {
	switch {
	case e.Identifier != "" && e.Version != "":
		return fmt.Sprintf("%s@%s (%s)", e.Identifier, e.Version, e.Path)
	case e.Identifier != "":
		if e.Path != "" {
			return fmt.Sprintf("%s (%s)", e.Identifier, e.Path)
		}
		return e.Identifier
	default:
		return e.Path
	}
}

// Resourcef builds a Resource-kind Error for plug-in identifier.
func Resourcef(identifier string, err error) *Error {
	return &Error{Code: Resource, Identifier: identifier, Err: err}
}

// Malformedf builds a Malformed-kind Error for the descriptor at path.
func Malformedf(path string, err error) *Error {
	return &Error{Code: Malformed, Path: path, Err: err}
}

// IOf builds an IO-kind Error for path.
func IOf(path string, err error) *Error {
	return &Error{Code: IO, Path: path, Err: err}
}
