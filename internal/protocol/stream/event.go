package stream

import "fmt"

// Kind identifies the event variant.
type Kind int

const (
	KindJSON Kind = iota + 1
	KindText
	KindError
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindText:
		return "text"
	case KindError:
		return "error"
	case KindEnd:
		return "end"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one observer-facing notification.
//
// KindJSON: Value holds the decoded object, Text the raw line.
// KindText: Text holds the line with its delimiter re-appended.
// KindError: Err is a *ParseError, a *TransportError, a *PartialRecordError
// or the unmodified error of an aliased handle.
// KindEnd: no payload.
type Event struct {
	Kind  Kind
	Value map[string]any
	Text  string
	Err   error
}

// Handler receives events in emission order.
type Handler func(Event)
