package uxf

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Header Line
// ============================================================
//
// Header format:
//   uxf 1.0 optional custom text
//
// Components:
//   uxf      - Format identifier
//   1.0      - Format version
//   custom   - Free text kept verbatim in Uxf.Custom

// Version is the highest UXF version this package reads and the version
// it writes.
const Version = 1.0

// VersionText is Version as written in headers.
const VersionText = "1.0"

// Header represents a parsed header line.
type Header struct {
	Version     float64 // 0 if VersionText is not a number
	VersionText string
	Custom      string
	Raw         string // Original header line
}

// ParseHeader parses the first line of a UXF file (without the newline).
// Problems with the version number are reported in warning rather than
// as errors.
func ParseHeader(line string) (h *Header, warning string, err error) {
	line = strings.TrimSuffix(line, "\r")
	parts := splitHeader(line)
	if len(parts) == 0 || parts[0] != "uxf" {
		return nil, "", fmt.Errorf("not a UXF file: expected header starting uxf")
	}
	if len(parts) < 2 {
		return nil, "", fmt.Errorf("invalid UXF header: missing version")
	}

	h = &Header{VersionText: parts[1], Raw: line}
	if len(parts) > 2 {
		h.Custom = parts[2]
	}

	v, perr := strconv.ParseFloat(parts[1], 64)
	switch {
	case perr != nil:
		warning = fmt.Sprintf("failed to read UXF file version number %q", parts[1])
	case v > Version:
		h.Version = v
		warning = fmt.Sprintf("version (%s) > current (%s)", parts[1], VersionText)
	default:
		h.Version = v
	}
	return h, warning, nil
}

// splitHeader splits at whitespace into at most three parts; the third
// part is the remainder of the line with leading space removed.
func splitHeader(line string) []string {
	var parts []string
	rest := line
	for len(parts) < 2 {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return parts
		}
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			return append(parts, rest)
		}
		parts = append(parts, rest[:i])
		rest = rest[i:]
	}
	if rest = strings.TrimLeft(rest, " \t"); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// String returns the header line as written.
func (h *Header) String() string {
	if h.Custom == "" {
		return "uxf " + h.VersionText
	}
	return "uxf " + h.VersionText + " " + h.Custom
}
