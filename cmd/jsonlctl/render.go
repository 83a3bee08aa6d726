package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/pretty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
)

// renderer prints tailed records. JSON records are indented; text lines are
// passed through unchanged.
type renderer struct {
	w     io.Writer
	color bool
}

// newRenderer colors output only when out is a terminal.
func newRenderer(out io.Writer) *renderer {
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return &renderer{w: colorable.NewColorable(f), color: true}
	}
	return &renderer{w: out}
}

func (r *renderer) JSON(value map[string]any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	b = pretty.Pretty(b)
	if r.color {
		b = pretty.Color(b, pretty.TerminalStyle)
	}
	_, err = r.w.Write(b)
	return err
}

func (r *renderer) Text(line string) error {
	_, err := io.WriteString(r.w, line)
	return err
}

func (r *renderer) RecordError(err error) error {
	if r.color {
		_, werr := fmt.Fprintf(r.w, "%s! %v%s\n", ansiRed, err, ansiReset)
		return werr
	}
	_, werr := fmt.Fprintf(r.w, "! %v\n", err)
	return werr
}
