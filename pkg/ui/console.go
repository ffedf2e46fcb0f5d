package ui

import (
	"io"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/pterm/pterm"
)

// ConsoleLogger prints user-facing progress with pterm prefixes.
type ConsoleLogger struct {
	info, success, warn, fail, debug pterm.PrefixPrinter
	verbose                          bool
}

var _ types.Logger = (*ConsoleLogger)(nil)

// NewConsoleLogger writes to out. Debug messages show only when verbose.
func NewConsoleLogger(out io.Writer, verbose bool) *ConsoleLogger {
	debug := *pterm.Debug.WithWriter(out)
	debug.Debugger = false
	return &ConsoleLogger{
		info:    *pterm.Info.WithWriter(out),
		success: *pterm.Success.WithWriter(out),
		warn:    *pterm.Warning.WithWriter(out),
		fail:    *pterm.Error.WithWriter(out),
		debug:   debug,
		verbose: verbose,
	}
}

func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.info.Printfln(format, args...)
}

func (l *ConsoleLogger) Success(format string, args ...interface{}) {
	l.success.Printfln(format, args...)
}

func (l *ConsoleLogger) Warn(format string, args ...interface{}) {
	l.warn.Printfln(format, args...)
}

func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.fail.Printfln(format, args...)
}

func (l *ConsoleLogger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.debug.Printfln(format, args...)
	}
}

// ConsolePrompter asks questions with pterm's interactive widgets. When
// not interactive, answers fall back to the defaults.
type ConsolePrompter struct {
	interactive bool
}

var _ types.Prompter = (*ConsolePrompter)(nil)

// NewConsolePrompter creates a prompter; interactive is normally
// IsTerminal(os.Stdin).
func NewConsolePrompter(interactive bool) *ConsolePrompter {
	return &ConsolePrompter{interactive: interactive}
}

// Select shows a single-choice list.
func (p *ConsolePrompter) Select(message string, options []string, defaultOption string) (string, error) {
	if len(options) == 0 {
		return "", errors.New(errors.ErrInvalidInput, "nothing to choose from")
	}
	if !p.interactive {
		for _, o := range options {
			if o == defaultOption {
				return o, nil
			}
		}
		return "", errors.Newf(errors.ErrInvalidInput, "%s: no default choice and no terminal to ask", message)
	}

	sel := pterm.DefaultInteractiveSelect.WithOptions(options)
	for _, o := range options {
		if o == defaultOption {
			sel = sel.WithDefaultOption(defaultOption)
		}
	}
	choice, err := sel.Show(message)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrPermissionOrIO, "cannot read selection")
	}
	return choice, nil
}

// Confirm asks a yes/no question.
func (p *ConsolePrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if !p.interactive {
		return defaultValue, nil
	}
	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(defaultValue).Show(message)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrPermissionOrIO, "cannot read confirmation")
	}
	return ok, nil
}
