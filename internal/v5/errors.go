package v5

// Envelope error taxonomy. Every decoder validation is a distinct failure
// kind so callers (and tests) can tell a garbled checksum from a stray
// sequence number. Envelope errors are terminal for the current exchange
// and never retried.

import "fmt"

// ErrorKind identifies which envelope invariant a frame violated.
type ErrorKind int

const (
	KindShortFrame ErrorKind = iota
	KindBadStart
	KindBadEnd
	KindBadChecksum
	KindSequenceMismatch
	KindSerialMismatch
	KindBadControl
	KindBadFrameType
	KindShortPayload
)

// String returns a short label for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindShortFrame:
		return "short frame"
	case KindBadStart:
		return "bad start marker"
	case KindBadEnd:
		return "bad end marker"
	case KindBadChecksum:
		return "bad checksum"
	case KindSequenceMismatch:
		return "sequence mismatch"
	case KindSerialMismatch:
		return "serial mismatch"
	case KindBadControl:
		return "unexpected control code"
	case KindBadFrameType:
		return "bad frame type"
	case KindShortPayload:
		return "undersized payload"
	default:
		return "envelope error"
	}
}

// EnvelopeError is a V5 envelope validation failure.
type EnvelopeError struct {
	Kind   ErrorKind
	Detail string
}

func (e *EnvelopeError) Error() string {
	if e.Detail == "" {
		return "v5: " + e.Kind.String()
	}
	return fmt.Sprintf("v5: %s: %s", e.Kind, e.Detail)
}

func envErr(kind ErrorKind, format string, v ...any) *EnvelopeError {
	return &EnvelopeError{Kind: kind, Detail: fmt.Sprintf(format, v...)}
}
