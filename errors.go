package clmem

import (
	"errors"
	"fmt"
)

// Kind is the closed error taxonomy from the design: every failure
// path in this package returns an *Error carrying one of these.
type Kind string

const (
	// KindConfigError: invalid builder option, detected at init time.
	KindConfigError Kind = "config error"
	// KindInitError: any failure during Buffer.Init.
	KindInitError Kind = "init error"
	// KindBufferClosed: operation attempted on a Closed buffer.
	KindBufferClosed Kind = "buffer closed"
	// KindOutOfBounds: offset+len exceeds capacity.
	KindOutOfBounds Kind = "out of bounds"
	// KindCapacityExceeded: write exceeds a static buffer's capacity.
	KindCapacityExceeded Kind = "capacity exceeded"
	// KindDeviceOOM: a driver allocation failed.
	KindDeviceOOM Kind = "device out of memory"
	// KindCopyError: an enqueue-copy (resize data migration) failed.
	KindCopyError Kind = "copy error"
	// KindTransferError: an enqueue-read/write failed.
	KindTransferError Kind = "transfer error"
	// KindCodecError: codec type mismatch or size disagreement.
	KindCodecError Kind = "codec error"
	// KindDestroyWarning: a release call failed during teardown; logged
	// and swallowed, never returned to the caller of destroy/close.
	KindDestroyWarning Kind = "destroy warning"
	// KindContextError: context or queue creation/acquisition failed.
	KindContextError Kind = "context error"
	// KindEventBusClosed: publish/subscribe attempted after bus shutdown.
	KindEventBusClosed Kind = "event bus closed"
)

// Error is the single structured error type returned by this package.
type Error struct {
	Op      string // operation that failed, e.g. "Buffer.Init", "Context.Create"
	Buffer  string // buffer name, empty if not applicable
	Context uint64 // context handle id, 0 if not applicable
	Kind    Kind
	Reason  string // optional sub-classification, e.g. "type_mismatch" for KindCodecError
	Msg     string
	Inner   error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Buffer != "" {
		parts = append(parts, fmt.Sprintf("buffer=%s", e.Buffer))
	}
	if e.Context != 0 {
		parts = append(parts, fmt.Sprintf("context=%d", e.Context))
	}
	if e.Reason != "" {
		parts = append(parts, fmt.Sprintf("reason=%s", e.Reason))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("clmem: %s (%s)", msg, joinParts(parts))
	}
	return fmt.Sprintf("clmem: %s", msg)
}

func joinParts(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// Unwrap supports errors.Is/errors.As against the wrapped driver error.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is compares by Kind, so errors.Is(err, &Error{Kind: KindOutOfBounds})
// (or one of the Is* sentinels below) matches regardless of message/op.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

// Sentinel values for errors.Is comparisons against a specific kind.
var (
	ErrConfig        = &Error{Kind: KindConfigError}
	ErrInit          = &Error{Kind: KindInitError}
	ErrBufferClosed  = &Error{Kind: KindBufferClosed}
	ErrOutOfBounds   = &Error{Kind: KindOutOfBounds}
	ErrCapacity      = &Error{Kind: KindCapacityExceeded}
	ErrDeviceOOM     = &Error{Kind: KindDeviceOOM}
	ErrCopy          = &Error{Kind: KindCopyError}
	ErrTransfer      = &Error{Kind: KindTransferError}
	ErrCodec         = &Error{Kind: KindCodecError}
	ErrContext       = &Error{Kind: KindContextError}
	ErrEventBusClosed = &Error{Kind: KindEventBusClosed}
)

func newError(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// NewConfigError reports an invalid builder option.
func NewConfigError(op, msg string) *Error {
	return newError(op, KindConfigError, msg)
}

// NewInitError reports a failure during Buffer.Init.
func NewInitError(op, buffer, msg string, inner error) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindInitError, Msg: msg, Inner: inner}
}

// NewContextError reports a context/queue acquisition failure.
func NewContextError(op string, contextID uint64, msg string, inner error) *Error {
	return &Error{Op: op, Context: contextID, Kind: KindContextError, Msg: msg, Inner: inner}
}

// NewBufferClosedError reports an operation attempted on a Closed buffer.
func NewBufferClosedError(op, buffer string) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindBufferClosed, Msg: "buffer is closed"}
}

// NewOutOfBoundsError reports offset+len exceeding capacity.
func NewOutOfBoundsError(op, buffer, msg string) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindOutOfBounds, Msg: msg}
}

// NewCapacityExceededError reports a write exceeding a static capacity.
func NewCapacityExceededError(op, buffer, msg string) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindCapacityExceeded, Msg: msg}
}

// NewDeviceOOMError reports a driver allocation failure.
func NewDeviceOOMError(op, buffer string, inner error) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindDeviceOOM, Msg: "driver allocation failed", Inner: inner}
}

// NewCopyError reports an enqueue-copy failure during resize.
func NewCopyError(op, buffer string, inner error) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindCopyError, Msg: "device copy failed", Inner: inner}
}

// NewTransferError reports an enqueue-read/write failure.
func NewTransferError(op, buffer string, inner error) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindTransferError, Msg: "device transfer failed", Inner: inner}
}

// NewCodecError reports a type mismatch ("type_mismatch") or a size
// disagreement ("capacity") between the codec and the value/slot it was
// asked to convert.
func NewCodecError(op, reason, msg string) *Error {
	return &Error{Op: op, Kind: KindCodecError, Reason: reason, Msg: msg}
}

// NewEventBusClosedError reports publish/subscribe after shutdown.
func NewEventBusClosedError(op string) *Error {
	return &Error{Op: op, Kind: KindEventBusClosed, Msg: "event bus is closed"}
}

// NewDestroyWarning wraps a release failure encountered during teardown.
// Callers collect these (see Buffer.destroyWarnings) and log them; they are
// never propagated to the caller of Close/Destroy.
func NewDestroyWarning(op, buffer string, inner error) *Error {
	return &Error{Op: op, Buffer: buffer, Kind: KindDestroyWarning, Msg: "resource release failed during teardown", Inner: inner}
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
