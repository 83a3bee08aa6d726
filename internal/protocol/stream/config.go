package stream

import (
	"fmt"
	"strings"

	"github.com/danmuck/jsonl/internal/protocol/frame"
)

// EndPolicy decides what happens to an unterminated tail at end of input.
type EndPolicy int

const (
	// EndDropPartial discards the tail without any event.
	EndDropPartial EndPolicy = iota
	// EndFlushPartial classifies the tail as a final record.
	EndFlushPartial
	// EndErrorPartial emits a *PartialRecordError carrying the tail.
	EndErrorPartial
)

func (p EndPolicy) String() string {
	switch p {
	case EndDropPartial:
		return "drop"
	case EndFlushPartial:
		return "flush"
	case EndErrorPartial:
		return "error"
	default:
		return fmt.Sprintf("end_policy(%d)", int(p))
	}
}

func ParseEndPolicy(raw string) (EndPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "drop":
		return EndDropPartial, nil
	case "flush":
		return EndFlushPartial, nil
	case "error":
		return EndErrorPartial, nil
	default:
		return EndDropPartial, fmt.Errorf("stream: unknown end policy %q", raw)
	}
}

// Config defines framing behavior for both read and write paths.
type Config struct {
	Delimiter          string
	MaxBufferSize      int
	PreserveWhitespace bool
	EndPolicy          EndPolicy
}

func DefaultConfig() Config {
	fc := frame.DefaultConfig()
	return Config{
		Delimiter:     fc.Delimiter,
		MaxBufferSize: fc.MaxBufferSize,
		EndPolicy:     EndDropPartial,
	}
}

func (c Config) Validate() error {
	return frame.Config{Delimiter: c.Delimiter, MaxBufferSize: c.MaxBufferSize}.Validate()
}
