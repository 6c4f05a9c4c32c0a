package uxf

import (
	"fmt"
	"os"
)

// Stage identifies the part of the engine that raised an Error.
type Stage uint8

const (
	StageLex Stage = iota
	StageParse
	StageCheck
	StageWrite
)

// String returns the stage tag used in error messages.
func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageCheck:
		return "check"
	case StageWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Error is the single carrier for fatal failures and warnings.
type Error struct {
	Stage   Stage
	Source  string // File name, or "-" for in-memory text
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%s:%d: %s", e.Stage, e.Source, e.Line, e.Message)
}

// reporter is the choke point every error and warning goes through.
type reporter struct {
	source      string
	warnIsError bool
	onWarning   func(*Error)
}

func newReporter(source string, warnIsError bool, onWarning func(*Error)) *reporter {
	if source == "" {
		source = "-"
	}
	return &reporter{source: source, warnIsError: warnIsError, onWarning: onWarning}
}

func (r *reporter) errorf(stage Stage, line int, format string, args ...interface{}) *Error {
	return &Error{
		Stage:   stage,
		Source:  r.source,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// warnf reports a warning. It returns non-nil only when warnings are
// escalated to errors.
func (r *reporter) warnf(stage Stage, line int, format string, args ...interface{}) error {
	e := r.errorf(stage, line, format, args...)
	if r.warnIsError {
		return e
	}
	if r.onWarning != nil {
		r.onWarning(e)
	} else {
		printWarning(e)
	}
	return nil
}

func printWarning(e *Error) {
	fmt.Fprintf(os.Stderr, "uxf warning: %s\n", e)
}
