package oops

import (
	"errors"
	"fmt"

	"github.com/go-stack/stack"
	"github.com/rs/zerolog"
)

// Kind classifies a decode failure. Every error produced by this module
// carries exactly one kind; callers dispatch on it with KindOf.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadSignature
	KindTruncatedStream
	KindInvalidHeader
	KindInvalidStructure
	KindChecksumMismatch
	KindUnsupportedChunk
	KindInvalidZlib
	KindInvalidBlock
	KindInvalidHuffman
	KindInvalidDistance
	KindInvalidFilter
	KindInvalidPalette
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindBadSignature:     "bad signature",
	KindTruncatedStream:  "truncated stream",
	KindInvalidHeader:    "invalid header",
	KindInvalidStructure: "invalid structure",
	KindChecksumMismatch: "checksum mismatch",
	KindUnsupportedChunk: "unsupported chunk",
	KindInvalidZlib:      "invalid zlib stream",
	KindInvalidBlock:     "invalid deflate block",
	KindInvalidHuffman:   "invalid huffman code",
	KindInvalidDistance:  "invalid match distance",
	KindInvalidFilter:    "invalid filter type",
	KindInvalidPalette:   "invalid palette",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Message string
	Wrapped error
	Stack   CallStack
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

type CallStack []StackFrame

func (s CallStack) MarshalZerologArray(a *zerolog.Array) {
	for _, frame := range s {
		a.Object(frame)
	}
}

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) MarshalZerologObject(e *zerolog.Event) {
	e.
		Str("file", f.File).
		Int("line", f.Line).
		Str("function", f.Function)
}

var ZerologStackMarshaler = func(err error) interface{} {
	var asOops *Error
	if errors.As(err, &asOops) {
		return asOops.Stack
	}
	return nil
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return Wrap(kind, nil, format, args...)
}

// Wrap is like New but also records a causing error.
func Wrap(kind Kind, wrapped error, format string, args ...interface{}) error {
	trace := stack.Trace().TrimRuntime()
	frames := make(CallStack, len(trace))
	for i, call := range trace {
		callFrame := call.Frame()
		frames[i] = StackFrame{
			File:     callFrame.File,
			Line:     callFrame.Line,
			Function: callFrame.Function,
		}
	}

	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Wrapped: wrapped,
		Stack:   frames,
	}
}

// KindOf reports the kind of err, or KindUnknown if err was not produced
// by this package.
func KindOf(err error) Kind {
	var asOops *Error
	if errors.As(err, &asOops) {
		return asOops.Kind
	}
	return KindUnknown
}
