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

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 26
	statusIndent     = "  "
)

var statusKinds = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusKinds[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize && style.color != "" {
		return style.color + line + ansiReset
	}
	return line
}

// statusReport accumulates sectioned status lines for one writer.
type statusReport struct {
	colorize bool
	lines    []string
}

func newStatusReport(out io.Writer) *statusReport {
	return &statusReport{colorize: shouldColorize(out)}
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if r.colorize {
		heading = ansiBlue + heading + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	r.lines = append(r.lines, heading, rule)
}

func (r *statusReport) line(label string, kind statusKind, message string) {
	r.lines = append(r.lines, renderStatusLine(label, kind, message, r.colorize))
}

func (r *statusReport) check(label string, passed bool, message string) {
	kind := statusError
	if passed {
		kind = statusOK
	}
	r.line(label, kind, message)
}

// count flags leftover state as a warning: an earlier run was interrupted or
// is still going.
func (r *statusReport) count(label string, n int) {
	kind := statusOK
	if n > 0 {
		kind = statusWarn
	}
	r.line(label, kind, fmt.Sprint(n))
}

func (r *statusReport) String() string {
	return strings.Join(r.lines, "\n")
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
