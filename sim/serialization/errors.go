package serialization

import (
	"fmt"
	"strings"
)

// Phase tells which kind of traversal produced an error.
type Phase string

const (
	PhaseMeasure  Phase = "measure"
	PhaseEncode   Phase = "encode"
	PhaseDecode   Phase = "decode"
	PhaseMap      Phase = "map"
	PhaseRegister Phase = "register"
)

// Kind categorizes an error.
type Kind string

const (
	KindTruncated    Kind = "truncated"
	KindTrailingData Kind = "trailing_data"
	KindUnknownTag   Kind = "unknown_tag"
	KindUnknownToken Kind = "unknown_token"
	KindUnregistered Kind = "unregistered_type"
	KindDuplicate    Kind = "duplicate_registration"
	KindTypeMismatch Kind = "type_mismatch"
	KindInvalidData  Kind = "invalid_data"
	KindUnsupported  Kind = "unsupported"
	KindNilPointer   Kind = "nil_pointer"
	KindUnbalanced   Kind = "unbalanced_hierarchy"
	KindSizeMismatch Kind = "size_mismatch"
	KindUsage        Kind = "usage"
)

// Error is the error reported when a traversal cannot complete.
type Error struct {
	Phase  Phase
	Kind   Kind
	Path   []string
	Detail string
	Token  uint64
	Tag    Tag
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("serialization")

	if e.Phase != "" {
		b.WriteString(" [")
		b.WriteString(string(e.Phase))
		b.WriteByte(']')
	}

	b.WriteByte(' ')
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Token != 0 {
		fmt.Fprintf(&b, " (token %d)", e.Token)
	}

	if e.Tag != NullTag {
		fmt.Fprintf(&b, " (tag %#x)", uint64(e.Tag))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(": caused by: ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind. A phase on the target narrows the
// match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}

	return t.Kind == e.Kind
}

// Sentinel errors to be used with errors.Is.
var (
	ErrTruncated    = &Error{Kind: KindTruncated}
	ErrTrailingData = &Error{Kind: KindTrailingData}
	ErrUnknownTag   = &Error{Kind: KindUnknownTag}
	ErrUnknownToken = &Error{Kind: KindUnknownToken}
	ErrUnregistered = &Error{Kind: KindUnregistered}
	ErrDuplicate    = &Error{Kind: KindDuplicate}
	ErrTypeMismatch = &Error{Kind: KindTypeMismatch}
	ErrInvalidData  = &Error{Kind: KindInvalidData}
	ErrUnsupported  = &Error{Kind: KindUnsupported}
	ErrNilPointer   = &Error{Kind: KindNilPointer}
	ErrUnbalanced   = &Error{Kind: KindUnbalanced}
	ErrSizeMismatch = &Error{Kind: KindSizeMismatch}
	ErrUsage        = &Error{Kind: KindUsage}
)
