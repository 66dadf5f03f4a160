// Package dberrors defines the error taxonomy used across goDB's storage
// and execution layers: a small set of sentinel "kinds" that the REPL uses
// to decide whether a statement failure is reported and processing
// continues, or whether the process must terminate.
package dberrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error into one of the taxonomy buckets from spec §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindSyntax
	KindSemantic
	KindConstraint
	KindNotFound
	KindUnsupported
	KindIO
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindConstraint:
		return "constraint"
	case KindNotFound:
		return "not-found"
	case KindUnsupported:
		return "unsupported"
	case KindIO:
		return "io"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// kindError pairs a Kind with a message and an optional wrapped cause.
type kindError struct {
	kind Kind
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *kindError) Unwrap() error { return e.err }

// New creates a new error of the given kind.
func New(k Kind, msg string) error {
	return &kindError{kind: k, msg: msg}
}

// Newf creates a new formatted error of the given kind.
func Newf(k Kind, format string, args ...any) error {
	return &kindError{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches call-site context to err while keeping its Kind (if any).
// Wrapping is done through github.com/pkg/errors so Cause()/StackTrace()
// remain available to diagnostic tooling built on top of the engine.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	k := KindOf(err)
	return &kindError{kind: k, msg: msg, err: errors.Wrap(err, msg)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// KindOf extracts the Kind carried by err, walking Unwrap() chains.
// Errors with no attached Kind report KindUnknown.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// Fatal reports whether a Kind terminates the process per spec §7:
// only I/O errors on cache flush and corruption (invariant) errors do.
func Fatal(err error) bool {
	switch KindOf(err) {
	case KindIO, KindInvariant:
		return true
	default:
		return false
	}
}

// Sentinel errors used with errors.Is across the storage/index layers.
var (
	ErrFileNotFound    = New(KindNotFound, "file not found")
	ErrPageOutOfRange  = New(KindIO, "page out of range")
	ErrHandleNotOpen   = New(KindIO, "file handle not open")
	ErrInvalidRid      = New(KindSemantic, "invalid record identifier")
	ErrTypeMismatch    = New(KindSemantic, "type mismatch")
	ErrNotNullViolated = New(KindSemantic, "NOT NULL constraint violated")
	ErrRangeOverflow   = New(KindSemantic, "integer value out of range")
	ErrVarcharOverflow = New(KindSemantic, "VARCHAR length exceeded")
	ErrArityMismatch   = New(KindSemantic, "value count does not match column count")

	ErrDuplicateKey        = New(KindConstraint, "duplicate key")
	ErrForeignKeyViolation = New(KindConstraint, "foreign key violation")
	ErrReferencedByFK      = New(KindConstraint, "referenced by foreign key")
	ErrDuplicateColumn     = New(KindConstraint, "duplicate column name")

	ErrDatabaseNotFound = New(KindNotFound, "database not found")
	ErrTableNotFound    = New(KindNotFound, "table not found")
	ErrColumnNotFound   = New(KindNotFound, "column not found")
	ErrIndexNotFound    = New(KindNotFound, "index not found")

	ErrUnsupported = New(KindUnsupported, "unsupported feature")

	ErrCorrupt        = New(KindInvariant, "corrupt page or invalid format version")
	ErrBufferPoolFull = New(KindInvariant, "buffer pool invariant violated")
)
