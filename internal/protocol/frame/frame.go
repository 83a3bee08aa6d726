package frame

import (
	"bytes"
	"errors"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultDelimiter     = "\n"
	DefaultMaxBufferSize = 1 << 20
)

var (
	ErrEmptyDelimiter   = errors.New("frame: delimiter must not be empty")
	ErrInvalidMaxBuffer = errors.New("frame: max buffer size must be positive")
)

// Config controls record boundaries and pending buffer growth.
type Config struct {
	Delimiter     string
	MaxBufferSize int
}

func DefaultConfig() Config {
	return Config{
		Delimiter:     DefaultDelimiter,
		MaxBufferSize: DefaultMaxBufferSize,
	}
}

func (c Config) Validate() error {
	if c.Delimiter == "" {
		return ErrEmptyDelimiter
	}
	if c.MaxBufferSize <= 0 {
		return ErrInvalidMaxBuffer
	}
	return nil
}

// Splitter reassembles arbitrary chunks into delimiter-terminated records.
// It holds the unterminated tail of the last chunk between calls.
// A Splitter is not safe for concurrent use.
type Splitter struct {
	delim   []byte
	max     int
	pending []byte
	dropped int64
}

// NewSplitter returns a Splitter for cfg. Invalid fields fall back to defaults.
func NewSplitter(cfg Config) *Splitter {
	def := DefaultConfig()
	if cfg.Delimiter == "" {
		cfg.Delimiter = def.Delimiter
	}
	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = def.MaxBufferSize
	}
	return &Splitter{
		delim: []byte(cfg.Delimiter),
		max:   cfg.MaxBufferSize,
	}
}

func (s *Splitter) Delimiter() string { return string(s.delim) }

func (s *Splitter) MaxBufferSize() int { return s.max }

func (s *Splitter) SetDelimiter(delim string) error {
	if delim == "" {
		return ErrEmptyDelimiter
	}
	s.delim = []byte(delim)
	return nil
}

// SetMaxBufferSize changes the pending bound. An already buffered tail is
// truncated to the new bound immediately.
func (s *Splitter) SetMaxBufferSize(n int) error {
	if n <= 0 {
		return ErrInvalidMaxBuffer
	}
	s.max = n
	if len(s.pending) > n {
		s.dropped += int64(len(s.pending) - n)
		s.pending = keepTail(s.pending, n)
	}
	return nil
}

// Feed appends chunk to the pending tail and returns every complete record,
// in order, without its delimiter. The segment after the final delimiter is
// kept for the next call; it is empty when chunk ends on the delimiter.
// Returned slices do not alias chunk or the pending buffer.
func (s *Splitter) Feed(chunk []byte) [][]byte {
	data := chunk
	if len(s.pending) > 0 {
		data = make([]byte, 0, len(s.pending)+len(chunk))
		data = append(data, s.pending...)
		data = append(data, chunk...)
	}
	s.pending = nil

	var records [][]byte
	for {
		i := bytes.Index(data, s.delim)
		if i < 0 {
			break
		}
		records = append(records, bytes.Clone(data[:i]))
		data = data[i+len(s.delim):]
	}
	if len(data) > s.max {
		s.dropped += int64(len(data) - s.max)
	}
	if len(data) > 0 {
		s.pending = bytes.Clone(keepTail(data, s.max))
	}
	return records
}

// Dropped returns the total number of bytes discarded by overflow truncation.
func (s *Splitter) Dropped() int64 { return s.dropped }

// Pending returns a copy of the buffered unterminated tail.
func (s *Splitter) Pending() []byte {
	return bytes.Clone(s.pending)
}

// Drain returns the unterminated tail and clears it.
func (s *Splitter) Drain() []byte {
	out := s.pending
	s.pending = nil
	return out
}

func (s *Splitter) Reset() {
	s.pending = nil
}

func keepTail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}

// LooksLikeObject reports whether line starts with optional whitespace
// followed by '{'. It decides which lines are decoded, not whether they are valid.
func LooksLikeObject(line []byte) bool {
	for len(line) > 0 {
		r, size := utf8.DecodeRune(line)
		if r == '{' {
			return true
		}
		if !unicode.IsSpace(r) {
			return false
		}
		line = line[size:]
	}
	return false
}

// IsBlank reports whether line is empty or whitespace only.
func IsBlank(line []byte) bool {
	return len(bytes.TrimFunc(line, unicode.IsSpace)) == 0
}
