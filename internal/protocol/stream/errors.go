package stream

import (
	"errors"
	"fmt"
)

var (
	ErrNilInput        = errors.New("stream: input handle is required")
	ErrNotWritable     = errors.New("stream: no writable output handle")
	ErrMalformedRecord = errors.New("stream: malformed json record")
	ErrPartialRecord   = errors.New("stream: unterminated record at end of input")
)

// Origin tags which handle produced a transport error.
type Origin string

const (
	OriginInput  Origin = "input"
	OriginOutput Origin = "output"
)

// ParseError reports a line that looked like a JSON object but failed to decode.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v (line %q)", ErrMalformedRecord, e.Err, e.Line)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformedRecord }

// TransportError tags a handle error with its origin. It is only used when
// input and output are distinct handles.
type TransportError struct {
	Origin Origin
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Error in %s stream: %v", e.Origin, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PartialRecordError carries the unterminated tail left at end of input.
type PartialRecordError struct {
	Tail string
}

func (e *PartialRecordError) Error() string {
	return fmt.Sprintf("%v: %d bytes", ErrPartialRecord, len(e.Tail))
}

func (e *PartialRecordError) Is(target error) bool { return target == ErrPartialRecord }
