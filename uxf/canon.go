package uxf

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ============================================================
// Naturalize
// ============================================================

// Naturalize converts text to the most specific scalar it spells: a bool
// (t, true, y, yes, f, false, n, no in any case), an int, a real, a
// datetime (if it contains a T) or a date. Anything else stays a str.
func Naturalize(s string) *Value {
	switch strings.ToUpper(s) {
	case "T", "TRUE", "Y", "YES":
		return Bool(true)
	case "F", "FALSE", "N", "NO":
		return Bool(false)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Real(f)
	}
	if strings.Contains(s, "T") {
		if t, _, err := parseDateTime(LenientDateTimes, s); err == nil {
			return DateTime(t)
		}
	} else if t, err := parseStrictDate(s); err == nil {
		return Date(t)
	}
	return Str(s)
}

// ============================================================
// Canonicalize
// ============================================================

// Canonicalize returns a valid ttype or field name for name. Runs of
// characters that cannot appear in identifiers become a single
// underscore. prefix is prepended when the name does not start with a
// letter or underscore, or collides with a reserved word. Pass a
// capitalized prefix and name to get a ttype name.
func Canonicalize(name, prefix string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		switch {
		case isIdentRune(r):
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	s := b.String()

	first, _ := utf8.DecodeRuneInString(s)
	if s == "" || !(unicode.IsLetter(first) || first == '_') || isReserved(s) {
		s = prefix + s
	}
	if utf8.RuneCountInString(s) > MaxIdentifierLen {
		s = string([]rune(s)[:MaxIdentifierLen])
	}
	return s
}

// ============================================================
// String Escaping
// ============================================================

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeString escapes a str or comment for output between < and >.
func escapeString(s string) string {
	return xmlEscaper.Replace(s)
}

// unescapeString decodes the XML entities &amp; &lt; &gt; &quot; &apos;
// and numeric character references. Any other & sequence is kept as is.
func unescapeString(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for {
		i := strings.IndexByte(s, '&')
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		s = s[i:]
		if j := strings.IndexByte(s, ';'); j > 1 {
			if text, ok := xmlEntity(s[1:j]); ok {
				sb.WriteString(text)
				s = s[j+1:]
				continue
			}
		}
		sb.WriteByte('&')
		s = s[1:]
	}
}

func xmlEntity(name string) (string, bool) {
	switch name {
	case "amp":
		return "&", true
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "quot":
		return "\"", true
	case "apos":
		return "'", true
	}
	if !strings.HasPrefix(name, "#") {
		return "", false
	}
	num, base := name[1:], 10
	if strings.HasPrefix(num, "x") || strings.HasPrefix(num, "X") {
		num, base = num[1:], 16
	}
	n, err := strconv.ParseUint(num, base, 32)
	if err != nil || n == 0 || !utf8.ValidRune(rune(n)) {
		return "", false
	}
	return string(rune(n)), true
}

func hexUpper(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
