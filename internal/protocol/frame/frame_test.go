package frame

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func recordsToStrings(records [][]byte) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, string(r))
	}
	return out
}

func TestFeedSplitsCompleteRecords(t *testing.T) {
	s := NewSplitter(DefaultConfig())
	got := recordsToStrings(s.Feed([]byte("a\nb\nc\n")))
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("unexpected records: %q", got)
	}
	if len(s.Pending()) != 0 {
		t.Fatalf("expected empty pending, got %q", s.Pending())
	}
}

func TestFeedRetainsPartialTail(t *testing.T) {
	s := NewSplitter(DefaultConfig())
	if got := s.Feed([]byte(`{"a":`)); len(got) != 0 {
		t.Fatalf("expected no records, got %q", recordsToStrings(got))
	}
	if string(s.Pending()) != `{"a":` {
		t.Fatalf("unexpected pending: %q", s.Pending())
	}
	got := recordsToStrings(s.Feed([]byte("1}\nrest")))
	if len(got) != 1 || got[0] != `{"a":1}` {
		t.Fatalf("unexpected records: %q", got)
	}
	if string(s.Pending()) != "rest" {
		t.Fatalf("unexpected pending: %q", s.Pending())
	}
}

func TestFeedChunkingIsIrrelevant(t *testing.T) {
	input := "first\n{\"n\":1}\n\n  \nlast line\n"
	whole := recordsToStrings(NewSplitter(DefaultConfig()).Feed([]byte(input)))

	for size := 1; size <= len(input); size++ {
		s := NewSplitter(DefaultConfig())
		var got []string
		for i := 0; i < len(input); i += size {
			end := min(i+size, len(input))
			got = append(got, recordsToStrings(s.Feed([]byte(input[i:end])))...)
		}
		if strings.Join(got, "|") != strings.Join(whole, "|") {
			t.Fatalf("chunk size %d: got=%q want=%q", size, got, whole)
		}
	}
}

func TestFeedMultiByteDelimiterAcrossChunks(t *testing.T) {
	s := NewSplitter(Config{Delimiter: "\r\n", MaxBufferSize: 64})
	if got := s.Feed([]byte("one\r")); len(got) != 0 {
		t.Fatalf("expected no records, got %q", recordsToStrings(got))
	}
	got := recordsToStrings(s.Feed([]byte("\ntwo\r\n")))
	if strings.Join(got, "|") != "one|two" {
		t.Fatalf("unexpected records: %q", got)
	}
}

func TestFeedOverflowKeepsMostRecentBytes(t *testing.T) {
	s := NewSplitter(Config{Delimiter: "\n", MaxBufferSize: 8})
	chunk := []byte("0123456789abcdef")
	if got := s.Feed(chunk); len(got) != 0 {
		t.Fatalf("expected no records, got %q", recordsToStrings(got))
	}
	if !bytes.Equal(s.Pending(), chunk[len(chunk)-8:]) {
		t.Fatalf("unexpected pending: %q", s.Pending())
	}
	s.Feed([]byte("XYZ"))
	if string(s.Pending()) != "bcdefXYZ" {
		t.Fatalf("unexpected pending after append: %q", s.Pending())
	}
	if s.Dropped() != 11 {
		t.Fatalf("unexpected dropped count: %d", s.Dropped())
	}
}

func TestFeedRecordsDoNotAliasInput(t *testing.T) {
	s := NewSplitter(DefaultConfig())
	chunk := []byte("abc\n")
	records := s.Feed(chunk)
	chunk[0] = 'X'
	if string(records[0]) != "abc" {
		t.Fatalf("record aliases input: %q", records[0])
	}
}

func TestDrainClearsPending(t *testing.T) {
	s := NewSplitter(DefaultConfig())
	s.Feed([]byte("tail"))
	if got := string(s.Drain()); got != "tail" {
		t.Fatalf("unexpected drain: %q", got)
	}
	if len(s.Pending()) != 0 {
		t.Fatalf("pending should be empty after drain")
	}
}

func TestSettersRejectInvalidValues(t *testing.T) {
	s := NewSplitter(DefaultConfig())
	if err := s.SetDelimiter(""); !errors.Is(err, ErrEmptyDelimiter) {
		t.Fatalf("expected ErrEmptyDelimiter, got %v", err)
	}
	if err := s.SetMaxBufferSize(0); !errors.Is(err, ErrInvalidMaxBuffer) {
		t.Fatalf("expected ErrInvalidMaxBuffer, got %v", err)
	}
	s.Feed([]byte("abcdef"))
	if err := s.SetMaxBufferSize(2); err != nil {
		t.Fatalf("set max: %v", err)
	}
	if string(s.Pending()) != "ef" {
		t.Fatalf("pending not truncated: %q", s.Pending())
	}
}

func TestNewSplitterNormalizesInvalidConfig(t *testing.T) {
	s := NewSplitter(Config{})
	if s.Delimiter() != DefaultDelimiter || s.MaxBufferSize() != DefaultMaxBufferSize {
		t.Fatalf("unexpected normalized config: %q %d", s.Delimiter(), s.MaxBufferSize())
	}
	if err := (Config{}).Validate(); !errors.Is(err, ErrEmptyDelimiter) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLooksLikeObject(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{`{"a":1}`, true},
		{"   \t{bad", true},
		{" {}", true},
		{`[1,2]`, false},
		{`"str"`, false},
		{`x{`, false},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		if got := LooksLikeObject([]byte(tc.line)); got != tc.want {
			t.Fatalf("LooksLikeObject(%q)=%v want=%v", tc.line, got, tc.want)
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(nil) || !IsBlank([]byte(" \t\r")) {
		t.Fatalf("expected blank")
	}
	if IsBlank([]byte(" x ")) {
		t.Fatalf("expected non-blank")
	}
}
