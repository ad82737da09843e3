package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	tag   string
	color text.Color
}{
	statusInfo:  {"INFO", text.FgBlue},
	statusOK:    {"OK", text.FgGreen},
	statusWarn:  {"WARN", text.FgYellow},
	statusError: {"ERROR", text.FgRed},
}

// checkKind maps a pass/fail check onto a status kind; optional failures
// only warn.
func checkKind(passed, optional bool) statusKind {
	if passed {
		return statusOK
	}
	if optional {
		return statusWarn
	}
	return statusError
}

// renderStatusLine formats "  Label:   [TAG] message" with the label padded
// to a fixed column.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-20s [%s]", label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color.Sprint(line)
	}
	return line
}

// statusWriter prints labelled status sections, colored only on a terminal.
type statusWriter struct {
	out   io.Writer
	color bool
}

func newStatusWriter(out io.Writer) statusWriter {
	return statusWriter{out: out, color: shouldColorize(out)}
}

func (w statusWriter) section(title string) {
	head := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(head))
	if w.color {
		head, rule = text.FgBlue.Sprint(head), text.FgBlue.Sprint(rule)
	}
	fmt.Fprintln(w.out, head)
	fmt.Fprintln(w.out, rule)
}

func (w statusWriter) line(label string, kind statusKind, message string) {
	fmt.Fprintln(w.out, renderStatusLine(label, kind, message, w.color))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
