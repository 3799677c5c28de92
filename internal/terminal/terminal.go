// Copyright 2016 Palantir Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package terminal writes cargo-style status lines and colored attributes.
package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// ColorMode determines whether output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses the value of a "--color" flag.
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(s); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", errors.Errorf("invalid color mode %q: must be one of %q, %q or %q", s, ColorAuto, ColorAlways, ColorNever)
	}
}

// Color is the color of a status label or attribute.
type Color int

const (
	Green Color = iota
	Red
	Yellow
)

func (c Color) attribute() color.Attribute {
	switch c {
	case Red:
		return color.FgRed
	case Yellow:
		return color.FgYellow
	default:
		return color.FgGreen
	}
}

// statusWidth is the width that status labels are right-justified to.
const statusWidth = 12

// Writer writes status output to an underlying writer. If color is enabled, labels are bold and colored; otherwise
// the output is plain text.
type Writer struct {
	w     io.Writer
	color bool
}

// NewWriter returns a Writer for w. In ColorAuto mode color is enabled only if w is a terminal.
func NewWriter(w io.Writer, mode ColorMode) *Writer {
	return &Writer{
		w:     w,
		color: colorEnabled(w, mode),
	}
}

func colorEnabled(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return IsTerminal(w)
}

// IsTerminal returns true if w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Underlying returns the writer that output is written to.
func (w *Writer) Underlying() io.Writer {
	return w.w
}

func (w *Writer) label(c Color, label string) string {
	bold := color.New(color.Bold, c.attribute())
	if w.color {
		bold.EnableColor()
	} else {
		bold.DisableColor()
	}
	return bold.Sprint(label)
}

// Status writes a status line whose label is right-justified, such as "    Scanning Cargo.lock".
func (w *Writer) Status(label, format string, args ...interface{}) error {
	return w.printf("%s %s\n", w.label(Green, fmt.Sprintf("%*s", statusWidth, label)), fmt.Sprintf(format, args...))
}

// Error writes an "error:" status line.
func (w *Writer) Error(format string, args ...interface{}) error {
	return w.printf("%s %s\n", w.label(Red, "error:"), fmt.Sprintf(format, args...))
}

// Warning writes a "warning:" status line.
func (w *Writer) Warning(format string, args ...interface{}) error {
	return w.printf("%s %s\n", w.label(Yellow, "warning:"), fmt.Sprintf(format, args...))
}

// Attr writes a label followed by its content. The label is expected to carry its own padding.
func (w *Writer) Attr(c Color, label, content string) error {
	return w.printf("%s%s\n", w.label(c, label), content)
}

// Println writes a plain line.
func (w *Writer) Println(line string) error {
	return w.printf("%s\n", line)
}

func (w *Writer) printf(format string, args ...interface{}) error {
	if _, err := fmt.Fprintf(w.w, format, args...); err != nil {
		return errors.Wrapf(err, "failed to write output")
	}
	return nil
}
