package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

// statusStyles maps each kind to its bracket label and ANSI color.
var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

// renderStatusLine formats one labelled status entry, e.g.
// "  Database:       [OK] /path/to/murmur.db".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(fmt.Sprintf("%-16s", label+":"))
	b.WriteString(" [")
	b.WriteString(style.label)
	b.WriteString("]")
	if message != "" {
		b.WriteString(" ")
		b.WriteString(message)
	}
	if colorize && style.color != "" {
		return style.color + b.String() + ansiReset
	}
	return b.String()
}

// renderSectionHeader returns a title line with an "=" underline, both
// colored when colorize is set.
func renderSectionHeader(title string, colorize bool) []string {
	lines := []string{title, strings.Repeat("=", len(title))}
	if colorize {
		blue := statusStyles[statusInfo].color
		for i, line := range lines {
			lines[i] = blue + line + ansiReset
		}
	}
	return lines
}

// shouldColorize enables ANSI output only when writing to a terminal.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
