// Package qerr provides the error-kind model shared across qcore: a typed,
// attachable error carrier and a fixed errno-to-kind registry.
//
// Grounded on the teacher's (github.com/ygrebnov/workers) error_tagging.go:
// the same Unwrap/Format/typed-extraction shape, generalized from a single
// "task ID + index" attachment pair to an ordered list of arbitrary
// attachments plus an identifying Kind.
package qerr

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Namespace prefixes every sentinel error message in this module, mirroring
// the teacher's errors.go Namespace constant.
const Namespace = "qcore"

// Kind identifies the broad category of an error, per spec.md §7.
type Kind string

const (
	ValueAbsent   Kind = "value-absent"
	Scheduling    Kind = "scheduling"
	Channel       Kind = "channel"
	Timer         Kind = "timer"
	Programmer    Kind = "programmer"
	ExternalErrno Kind = "external-errno"
	Combined      Kind = "combined"
)

// AttachedError is an opaque, copyable, type-erased error carrying an
// ordered list of printable attachments and an identifying Kind.
type AttachedError struct {
	kind        Kind
	msg         string
	wrapped     error
	attachments []any
}

// New builds an AttachedError of the given kind and message.
func New(kind Kind, msg string) *AttachedError {
	return &AttachedError{kind: kind, msg: msg}
}

// Wrap builds an AttachedError of the given kind wrapping err.
func Wrap(kind Kind, err error, msg string) *AttachedError {
	return &AttachedError{kind: kind, msg: msg, wrapped: err}
}

// WithAttachment returns a shallow copy of e with attachment appended to the
// ordered attachment list. The original e is left untouched (AttachedError
// is treated as an immutable, shareable value once constructed).
func (e *AttachedError) WithAttachment(attachment any) *AttachedError {
	cp := *e
	cp.attachments = append(append([]any(nil), e.attachments...), attachment)
	return &cp
}

// Kind returns the error's kind.
func (e *AttachedError) Kind() Kind { return e.kind }

// Error renders the message followed by every attachment, in order.
func (e *AttachedError) Error() string {
	var b strings.Builder
	b.WriteString(Namespace)
	b.WriteString(": ")
	b.WriteString(e.msg)
	for _, a := range e.attachments {
		fmt.Fprintf(&b, " [%v]", a)
	}
	if e.wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped error, if any, to errors.Is/errors.As.
func (e *AttachedError) Unwrap() error { return e.wrapped }

// Format supports %+v (message, kind and attachments) alongside plain %s/%v.
func (e *AttachedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s(kind=%s, attachments=%v): %s", Namespace, e.kind, e.attachments, e.msg)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Attachment returns the first attachment assignable to T, walking err's
// Unwrap chain if necessary.
func Attachment[T any](err error) (T, bool) {
	var zero T
	for err != nil {
		var ae *AttachedError
		if errors.As(err, &ae) {
			for _, a := range ae.attachments {
				if v, ok := a.(T); ok {
					return v, true
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return zero, false
}

// KindOf reports the Kind carried by err, if err (or something in its
// Unwrap chain) is an *AttachedError.
func KindOf(err error) (Kind, bool) {
	var ae *AttachedError
	if errors.As(err, &ae) {
		return ae.kind, true
	}
	return "", false
}

// errnoRegistry maps OS errno-like integers to a concrete error kind,
// populated once at package init, per spec.md §6's "Error registry".
var errnoRegistry = map[int]string{
	int(syscall.EAGAIN):    "resource temporarily unavailable",
	int(syscall.EINVAL):    "invalid argument",
	int(syscall.ENOENT):    "no such file or directory",
	int(syscall.EPIPE):     "broken pipe",
	int(syscall.ECONNRESET): "connection reset by peer",
	int(syscall.ETIMEDOUT): "operation timed out",
}

// FromErrno translates an OS errno-like integer into a typed error whose
// Kind is ExternalErrno. Unknown codes still produce an ExternalErrno error,
// carrying the raw code and syscall.Errno's own message.
func FromErrno(code int) error {
	if msg, ok := errnoRegistry[code]; ok {
		return New(ExternalErrno, msg).WithAttachment(code)
	}
	return New(ExternalErrno, syscall.Errno(code).Error()).WithAttachment(code)
}
