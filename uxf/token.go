package uxf

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind represents the kind of a lexer token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Structural
	TokenTTypeBegin // =
	TokenTTypeEnd   // implicit, before the first collection
	TokenTableBegin // (
	TokenTableEnd   // )
	TokenListBegin  // [
	TokenListEnd    // ]
	TokenMapBegin   // {
	TokenMapEnd     // }
	TokenComment    // #<text>

	// Literals
	TokenNull     // ?
	TokenBool     // yes, no, true, false
	TokenInt      // 123, -456
	TokenReal     // 1.5, -4.5e7
	TokenDate     // 2022-01-13
	TokenDateTime // 2022-01-13T10:30:00
	TokenStr      // <text>
	TokenBytes    // (:HEX:)

	// Names
	TokenType  // built-in type name, or :name in a ttype definition
	TokenIdent // ttype or field name
)

// String returns the token kind name.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenTTypeBegin:
		return "TTYPE_BEGIN"
	case TokenTTypeEnd:
		return "TTYPE_END"
	case TokenTableBegin:
		return "TABLE_BEGIN"
	case TokenTableEnd:
		return "TABLE_END"
	case TokenListBegin:
		return "LIST_BEGIN"
	case TokenListEnd:
		return "LIST_END"
	case TokenMapBegin:
		return "MAP_BEGIN"
	case TokenMapEnd:
		return "MAP_END"
	case TokenComment:
		return "COMMENT"
	case TokenNull:
		return "NULL"
	case TokenBool:
		return "BOOL"
	case TokenInt:
		return "INT"
	case TokenReal:
		return "REAL"
	case TokenDate:
		return "DATE"
	case TokenDateTime:
		return "DATE_TIME"
	case TokenStr:
		return "STR"
	case TokenBytes:
		return "BYTES"
	case TokenType:
		return "TYPE"
	case TokenIdent:
		return "IDENTIFIER"
	default:
		return "UNKNOWN"
	}
}

// isScalar reports whether the token carries a scalar value.
func (k TokenKind) isScalar() bool {
	return k >= TokenNull && k <= TokenBytes
}

// Token represents a lexer token. Literal tokens carry their decoded Value;
// comments and names carry Text.
type Token struct {
	Kind  TokenKind
	Text  string
	Value *Value
	Line  int
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch {
	case t.Value != nil:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
	case t.Text != "":
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// Lexer tokenizes UXF text.
type Lexer struct {
	input   string
	pos     int // Current byte offset in input
	line    int // Current line number (1-based)
	tokens  []Token
	inTType bool // between = and the first collection
	header  *Header

	rep       *reporter
	dateTimes DateTimeParser
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string, opts ParseOptions) *Lexer {
	return &Lexer{
		input:     input,
		line:      1,
		rep:       opts.reporter(),
		dateTimes: opts.dateTimes(),
	}
}

// Header returns the header parsed by Tokenize.
func (l *Lexer) Header() *Header {
	return l.header
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	if err := l.scanHeader(); err != nil {
		return nil, err
	}
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.closeTType()
	l.add(TokenEOF, "", nil)
	return l.tokens, nil
}

func (l *Lexer) scanHeader() error {
	i := strings.IndexByte(l.input, '\n')
	if i < 0 {
		return l.rep.errorf(StageLex, l.line, "missing UXF file header or missing data or empty file")
	}
	h, warning, err := ParseHeader(l.input[:i])
	if err != nil {
		return l.rep.errorf(StageLex, l.line, "%s", strings.TrimPrefix(err.Error(), "uxf: "))
	}
	if warning != "" {
		if err := l.rep.warnf(StageLex, l.line, "%s", warning); err != nil {
			return err
		}
	}
	l.header = h
	l.pos = i + 1
	l.line++
	return nil
}

// scanToken scans the token starting at the current position.
func (l *Lexer) scanToken() error {
	ch := l.peek()

	switch ch {
	case '(':
		if l.peekAt(1) == ':' {
			return l.scanBytes()
		}
		l.pos++
		l.closeTType()
		l.add(TokenTableBegin, "", nil)
		return nil
	case ')':
		l.pos++
		l.add(TokenTableEnd, "", nil)
		return nil
	case '[':
		l.pos++
		l.closeTType()
		l.add(TokenListBegin, "", nil)
		return nil
	case ']':
		l.pos++
		l.add(TokenListEnd, "", nil)
		return nil
	case '{':
		l.pos++
		l.closeTType()
		l.add(TokenMapBegin, "", nil)
		return nil
	case '}':
		l.pos++
		l.inTType = false
		l.add(TokenMapEnd, "", nil)
		return nil
	case '=':
		l.pos++
		l.closeTType()
		l.inTType = true
		l.add(TokenTTypeBegin, "", nil)
		return nil
	case '?':
		l.pos++
		l.add(TokenNull, "", Null())
		return nil
	case '#':
		return l.scanComment()
	case '<':
		line := l.line
		l.pos++
		s, err := l.scanDelimited(">", "string")
		if err != nil {
			return err
		}
		l.tokens = append(l.tokens, Token{Kind: TokenStr, Value: Str(s), Line: line})
		return nil
	case ':':
		return l.scanFieldType()
	}

	if ch == '-' || isDigit(ch) {
		return l.scanNumberOrDate()
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if unicode.IsLetter(r) || r == '_' {
		return l.scanName()
	}
	return l.rep.errorf(StageLex, l.line, "invalid character encountered: %q", r)
}

// closeTType emits the implicit end of a ttype definition.
func (l *Lexer) closeTType() {
	if l.inTType {
		l.inTType = false
		l.add(TokenTTypeEnd, "", nil)
	}
}

// scanComment scans #<text>. Comments may only open a collection.
func (l *Lexer) scanComment() error {
	line := l.line
	l.pos++ // consume #
	if l.peek() != '<' {
		return l.rep.errorf(StageLex, line, "invalid comment syntax: expected '<', got %q", l.peekRune())
	}
	l.pos++
	text, err := l.scanDelimited(">", "comment")
	if err != nil {
		return err
	}
	switch l.lastKind() {
	case TokenListBegin, TokenMapBegin, TokenTableBegin:
	default:
		return l.rep.errorf(StageLex, line, "comments may only occur at the start of maps, lists, and tables")
	}
	l.tokens = append(l.tokens, Token{Kind: TokenComment, Text: text, Line: line})
	return nil
}

// scanDelimited reads up to end, consuming it, and XML-unescapes the text.
func (l *Lexer) scanDelimited(end, what string) (string, error) {
	line := l.line
	i := strings.Index(l.input[l.pos:], end)
	if i < 0 {
		return "", l.rep.errorf(StageLex, line, "unterminated %s", what)
	}
	raw := l.input[l.pos : l.pos+i]
	l.line += strings.Count(raw, "\n")
	l.pos += i + len(end)
	return unescapeString(raw), nil
}

// scanBytes scans (:HEX:). Whitespace between hex digits is ignored.
func (l *Lexer) scanBytes() error {
	line := l.line
	l.pos += 2 // consume (:
	i := strings.Index(l.input[l.pos:], ":)")
	if i < 0 {
		return l.rep.errorf(StageLex, line, "unterminated bytes")
	}
	raw := l.input[l.pos : l.pos+i]
	l.line += strings.Count(raw, "\n")
	l.pos += i + 2
	b, err := hex.DecodeString(strings.Join(strings.Fields(raw), ""))
	if err != nil {
		return l.rep.errorf(StageLex, line, "expected bytes, got %q: %v", raw, err)
	}
	l.tokens = append(l.tokens, Token{Kind: TokenBytes, Value: Bytes(b), Line: line})
	return nil
}

// scanFieldType scans :name, the value type of a ttype field.
func (l *Lexer) scanFieldType() error {
	line := l.line
	l.pos++ // consume :
	l.skipWhitespace()
	name := l.scanWord()
	if name == "" {
		return l.rep.errorf(StageLex, line, "expected a type name after ':', got %q", l.peekRune())
	}
	l.tokens = append(l.tokens, Token{Kind: TokenType, Text: name, Line: line})
	return nil
}

// scanNumberOrDate scans an int, real, date or datetime. A leading minus
// is consumed separately and is only valid for numbers.
func (l *Lexer) scanNumberOrDate() error {
	line := l.line
	negative := false
	if l.peek() == '-' {
		negative = true
		l.pos++
	}
	start := l.pos
	for l.pos < len(l.input) && isNumberChar(l.input[l.pos]) {
		l.pos++
	}
	text := l.input[start:l.pos]
	sign := ""
	if negative {
		sign = "-"
	}
	if text == "" {
		return l.rep.errorf(StageLex, line, "invalid number: %q", sign)
	}

	switch {
	case strings.ContainsAny(text, ":TZ"):
		if negative {
			return l.rep.errorf(StageLex, line, "datetimes cannot be negative: %q", sign+text)
		}
		t, truncated, err := parseDateTime(l.dateTimes, text)
		if err != nil {
			return l.rep.errorf(StageLex, line, "invalid datetime: %q", text)
		}
		if truncated {
			if err := l.rep.warnf(StageLex, line, "skipped timezone data, used %q, got %q",
				text[:strictPrefixLen], text); err != nil {
				return err
			}
		}
		l.add(TokenDateTime, "", DateTime(t))

	case strings.Count(text, "-") == 2:
		if negative {
			return l.rep.errorf(StageLex, line, "dates cannot be negative: %q", sign+text)
		}
		t, err := parseStrictDate(text)
		if err != nil {
			return l.rep.errorf(StageLex, line, "invalid date: %q", text)
		}
		l.add(TokenDate, "", Date(t))

	case strings.ContainsAny(text, ".eE"):
		f, err := strconv.ParseFloat(sign+text, 64)
		if err != nil {
			return l.rep.errorf(StageLex, line, "invalid real: %q", sign+text)
		}
		l.add(TokenReal, "", Real(f))

	default:
		n, err := strconv.ParseInt(sign+text, 10, 64)
		if err != nil {
			return l.rep.errorf(StageLex, line, "invalid int: %q", sign+text)
		}
		l.add(TokenInt, "", Int(n))
	}
	return nil
}

// scanName scans a bool constant, a built-in type name or an identifier.
// Inside a ttype definition every name is an identifier.
func (l *Lexer) scanName() error {
	line := l.line
	name := l.scanWord()

	if l.inTType {
		l.tokens = append(l.tokens, Token{Kind: TokenIdent, Text: name, Line: line})
		return nil
	}
	if b, ok := boolNames[name]; ok {
		l.add(TokenBool, "", Bool(b))
		return nil
	}
	if _, ok := typeNames[name]; ok {
		l.tokens = append(l.tokens, Token{Kind: TokenType, Text: name, Line: line})
		return nil
	}
	r, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(r) {
		return l.rep.errorf(StageLex, line, "expected const or identifier, got %q", name)
	}
	if utf8.RuneCountInString(name) > MaxIdentifierLen {
		return l.rep.errorf(StageLex, line, "identifier %q is longer than %d characters", name, MaxIdentifierLen)
	}
	l.tokens = append(l.tokens, Token{Kind: TokenIdent, Text: name, Line: line})
	return nil
}

// scanWord consumes the longest run of identifier runes.
func (l *Lexer) scanWord() string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentRune(r) {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

// skipWhitespace skips whitespace, counting lines.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		if r == '\n' {
			l.line++
		}
		l.pos += size
	}
}

// Helper methods

func (l *Lexer) add(kind TokenKind, text string, value *Value) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Value: value, Line: l.line})
}

func (l *Lexer) lastKind() TokenKind {
	if len(l.tokens) == 0 {
		return TokenEOF
	}
	return l.tokens[len(l.tokens)-1].Kind
}

func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.input) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// Character classification

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNumberChar(ch byte) bool {
	return isDigit(ch) || strings.IndexByte(".eE:TZ+-", ch) >= 0
}
