package uxf

import (
	"fmt"
	"time"

	"github.com/relvacode/iso8601"
)

// DateTimeParser parses datetime literals. It is consulted before the
// strict parser, so it may accept a superset of the strict syntax.
type DateTimeParser interface {
	ParseDateTime(s string) (time.Time, error)
}

// DateTimeParserFunc adapts a function to DateTimeParser.
type DateTimeParserFunc func(s string) (time.Time, error)

// ParseDateTime calls f(s).
func (f DateTimeParserFunc) ParseDateTime(s string) (time.Time, error) {
	return f(s)
}

var (
	// LenientDateTimes accepts any ISO-8601 datetime, including a "Z"
	// suffix and compact offsets. It is the default.
	LenientDateTimes DateTimeParser = DateTimeParserFunc(iso8601.ParseString)

	// StrictDateTimes accepts only YYYY-MM-DDTHH[:MM[:SS[.f]]] with an
	// optional ±HH:MM offset.
	StrictDateTimes DateTimeParser = DateTimeParserFunc(parseStrictDateTime)
)

// strictLayouts are tried in order. Fractional seconds are accepted after
// the seconds field even though the layouts do not spell them out.
var strictLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
}

// strictPrefixLen is the length of YYYY-MM-DDTHH:MM:SS, the longest text
// the strict parser is retried on when a datetime does not parse.
const strictPrefixLen = 19

func parseStrictDateTime(s string) (time.Time, error) {
	for _, layout := range strictLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

func parseStrictDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// parseDateTime runs the lenient parser, then the strict one. If both
// fail on text longer than YYYY-MM-DDTHH:MM:SS the strict parser is retried
// on that prefix; truncated reports whether that happened.
func parseDateTime(lenient DateTimeParser, s string) (t time.Time, truncated bool, err error) {
	if lenient != nil {
		if t, err = lenient.ParseDateTime(s); err == nil {
			return t, false, nil
		}
	}
	if t, err = parseStrictDateTime(s); err == nil {
		return t, false, nil
	}
	if len(s) > strictPrefixLen {
		if t, err2 := parseStrictDateTime(s[:strictPrefixLen]); err2 == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, err
}
