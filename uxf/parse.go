package uxf

import (
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseOptions configures the parser behavior.
type ParseOptions struct {
	// Source names the input in messages (default "-").
	Source string

	// Check reconciles values against declared types as each collection
	// closes, reporting mismatches as warnings.
	Check bool

	// FixTypes coerces mismatching values where possible. Implies Check.
	FixTypes bool

	// WarnIsError makes the first warning fatal.
	WarnIsError bool

	// DateTimes is tried before the strict datetime parser. Nil means
	// LenientDateTimes.
	DateTimes DateTimeParser

	// OnWarning receives every warning. Nil prints to stderr.
	OnWarning func(*Error)
}

// DefaultParseOptions returns options for unchecked parsing.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Source: "-"}
}

func (o ParseOptions) reporter() *reporter {
	return newReporter(o.Source, o.WarnIsError, o.OnWarning)
}

func (o ParseOptions) dateTimes() DateTimeParser {
	if o.DateTimes == nil {
		return LenientDateTimes
	}
	return o.DateTimes
}

// Loads parses UXF text into a document.
func Loads(text string, opts ParseOptions) (*Uxf, error) {
	if opts.FixTypes {
		opts.Check = true
	}
	lexer := NewLexer(text, opts)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}
	doc, err := Parse(tokens, opts)
	if err != nil {
		return nil, err
	}
	doc.Custom = lexer.Header().Custom
	return doc, nil
}

// Load reads UXF text from r and parses it. Compressed input is handled
// by the uxfio package.
func Load(r io.Reader, opts ParseOptions) (*Uxf, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Loads(string(data), opts)
}

// keyState is the pending-key state of a map being parsed.
type keyState uint8

const (
	awaitingKey keyState = iota
	awaitingValue
)

// frame is one open collection on the parser stack.
type frame struct {
	value     *Value
	line      int
	items     int  // types, identifiers and values seen
	types     int  // TYPE tokens seen
	commented bool // comment already set
	keys      keyState
	key       *Value // valid when keys == awaitingValue
}

// Parser builds a document from tokens.
type Parser struct {
	tokens []Token
	pos    int
	opts   ParseOptions
	rep    *reporter

	ttypes map[string]*TType
	stack  []*frame
	root   *Value
	closed bool // root collection has been closed
}

// Parse builds a document from a token stream produced by Lexer.
func Parse(tokens []Token, opts ParseOptions) (*Uxf, error) {
	if opts.FixTypes {
		opts.Check = true
	}
	p := &Parser{
		tokens: tokens,
		opts:   opts,
		rep:    opts.reporter(),
		ttypes: make(map[string]*TType),
	}
	if err := p.parseTTypes(); err != nil {
		return nil, err
	}
	if err := p.parseData(); err != nil {
		return nil, err
	}
	return &Uxf{Data: p.root, TTypes: p.ttypes}, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos]
}

// ============================================================
// Phase A: ttype definitions
// ============================================================

// parseTTypes consumes the leading run of ttype definitions.
func (p *Parser) parseTTypes() error {
	refs := make(map[string]bool)

	for p.peek().Kind == TokenTTypeBegin {
		begin := p.tokens[p.pos]
		p.pos++

		nameTok := p.peek()
		if nameTok.Kind != TokenIdent {
			return p.rep.errorf(StageParse, begin.Line, "expected ttype name, got %s", nameTok)
		}
		p.pos++
		tt, err := NewTType(nameTok.Text)
		if err != nil {
			return p.rep.errorf(StageParse, nameTok.Line, "%s", trimPrefix(err))
		}
		if _, dup := p.ttypes[tt.Name()]; dup {
			return p.rep.errorf(StageParse, nameTok.Line, "duplicate ttype definition: %s", tt.Name())
		}

	fields:
		for {
			tok := p.peek()
			switch tok.Kind {
			case TokenIdent:
				p.pos++
				vtype := ""
				if next := p.peek(); next.Kind == TokenType {
					p.pos++
					vtype = next.Text
				}
				f, err := NewField(tok.Text, vtype)
				if err != nil {
					return p.rep.errorf(StageParse, tok.Line, "%s", trimPrefix(err))
				}
				if err := tt.AppendField(f); err != nil {
					return p.rep.errorf(StageParse, tok.Line, "%s", trimPrefix(err))
				}
				if isTTypeRef(vtype) {
					refs[vtype] = true
				}
			case TokenTTypeEnd:
				p.pos++
				break fields
			case TokenType:
				return p.rep.errorf(StageParse, tok.Line, "expected field name before type %s", tok.Text)
			default:
				break fields
			}
		}
		p.ttypes[tt.Name()] = tt
	}

	var missing []string
	for name := range refs {
		if _, ok := p.ttypes[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return p.rep.errorf(StageParse, p.peek().Line, "undefined field types: %s", strings.Join(missing, ", "))
	}
	return nil
}

func isTTypeRef(vtype string) bool {
	r, _ := utf8.DecodeRuneInString(vtype)
	return vtype != "" && unicode.IsUpper(r)
}

// ============================================================
// Phase B: data
// ============================================================

func (p *Parser) parseData() error {
	for ; p.pos < len(p.tokens); p.pos++ {
		tok := p.tokens[p.pos]
		var err error

		switch tok.Kind {
		case TokenEOF:
			return p.finish(tok)
		case TokenListBegin:
			err = p.open(tok, ListValue(NewList("")))
		case TokenMapBegin:
			err = p.open(tok, MapValue(NewMap("", "")))
		case TokenTableBegin:
			err = p.open(tok, TableValue(NewTable(nil)))
		case TokenListEnd, TokenMapEnd, TokenTableEnd:
			err = p.close(tok)
		case TokenComment:
			err = p.comment(tok)
		case TokenIdent:
			err = p.ident(tok)
		case TokenType:
			err = p.typeName(tok)
		case TokenTTypeBegin, TokenTTypeEnd:
			err = p.rep.errorf(StageParse, tok.Line, "ttype definitions must precede the data")
		default:
			if tok.Kind.isScalar() {
				err = p.add(tok.Value, tok.Line)
			} else {
				err = p.rep.errorf(StageParse, tok.Line, "unexpected token %s", tok)
			}
		}
		if err != nil {
			return err
		}
	}
	return p.finish(Token{Kind: TokenEOF})
}

func (p *Parser) finish(eof Token) error {
	if n := len(p.stack); n > 0 {
		top := p.stack[n-1]
		return p.rep.errorf(StageParse, eof.Line, "unexpected end of data: %s opened at line %d is not closed",
			top.value.Kind(), top.line)
	}
	if p.root == nil {
		return p.rep.errorf(StageParse, eof.Line, "missing data: expected a map, list, or table")
	}
	return nil
}

func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// open adds a new collection to the current one and makes it current.
func (p *Parser) open(tok Token, v *Value) error {
	if p.closed {
		return p.rep.errorf(StageParse, tok.Line, "only one top-level map, list, or table is allowed")
	}
	if err := p.add(v, tok.Line); err != nil {
		return err
	}
	p.stack = append(p.stack, &frame{value: v, line: tok.Line})
	return nil
}

// close checks and pops the current collection.
func (p *Parser) close(tok Token) error {
	f := p.top()
	if f == nil {
		return p.rep.errorf(StageParse, tok.Line, "unexpected %s with no open collection", closerOf(tok.Kind))
	}
	if want := closerFor(f.value.Kind()); want != tok.Kind {
		return p.rep.errorf(StageParse, tok.Line, "expected %s to close %s opened at line %d, got %s",
			closerOf(want), f.value.Kind(), f.line, closerOf(tok.Kind))
	}
	if f.value.Kind() == KindMap && f.keys == awaitingValue {
		return p.rep.errorf(StageParse, tok.Line, "map opened at line %d has key %s with no value",
			f.line, scalarText(f.key, false))
	}
	if f.value.Kind() == KindTable && f.value.tableVal.TType() == nil {
		return p.rep.errorf(StageParse, tok.Line, "table opened at line %d has no ttype name", f.line)
	}
	if p.opts.Check {
		c := &checker{rep: p.rep, fixTypes: p.opts.FixTypes, line: tok.Line}
		if err := c.check(f.value); err != nil {
			return err
		}
	}
	p.stack = p.stack[:len(p.stack)-1]
	if len(p.stack) == 0 {
		p.closed = true
	}
	return nil
}

func closerFor(k Kind) TokenKind {
	switch k {
	case KindList:
		return TokenListEnd
	case KindMap:
		return TokenMapEnd
	default:
		return TokenTableEnd
	}
}

func closerOf(k TokenKind) string {
	switch k {
	case TokenListEnd:
		return "]"
	case TokenMapEnd:
		return "}"
	default:
		return ")"
	}
}

// comment sets the comment of a just-opened collection.
func (p *Parser) comment(tok Token) error {
	f := p.top()
	if f == nil || f.items > 0 || f.commented {
		return p.rep.errorf(StageParse, tok.Line, "comments may only occur at the start of maps, lists, and tables")
	}
	f.commented = true
	switch f.value.Kind() {
	case KindList:
		f.value.listVal.Comment = tok.Text
	case KindMap:
		f.value.mapVal.Comment = tok.Text
	case KindTable:
		f.value.tableVal.Comment = tok.Text
	}
	return nil
}

// ident resolves the ttype name that opens a table.
func (p *Parser) ident(tok Token) error {
	f := p.top()
	if f == nil || f.value.Kind() != KindTable || f.items > 0 {
		return p.rep.errorf(StageParse, tok.Line, "ttype name %s may only occur at the start of a table", tok.Text)
	}
	tt, ok := p.ttypes[tok.Text]
	if !ok {
		return p.rep.errorf(StageParse, tok.Line, "undefined ttype: %s", tok.Text)
	}
	f.value.tableVal.SetTType(tt)
	f.items++
	return nil
}

// typeName sets a list vtype, or a map ktype then vtype.
func (p *Parser) typeName(tok Token) error {
	f := p.top()
	if f != nil {
		switch f.value.Kind() {
		case KindList:
			if f.items == 0 {
				f.value.listVal.VType = tok.Text
				f.items++
				f.types++
				return nil
			}
		case KindMap:
			if f.items == f.types && f.types < 2 {
				m := f.value.mapVal
				if f.types == 0 {
					if !keyTypeNames[tok.Text] {
						return p.rep.errorf(StageParse, tok.Line,
							"a map's ktype must be int, date, datetime, str, or bytes, got %s", tok.Text)
					}
					m.KType = tok.Text
				} else {
					m.VType = tok.Text
				}
				f.items++
				f.types++
				return nil
			}
		}
	}
	return p.rep.errorf(StageParse, tok.Line,
		"type name %s may only occur at the start of a list, or as one of the first two items of a map", tok.Text)
}

// add appends v to the current collection using that collection's rule,
// or makes it the root.
func (p *Parser) add(v *Value, line int) error {
	f := p.top()
	if f == nil {
		if v.Kind().IsScalar() {
			return p.rep.errorf(StageParse, line, "expected a map, list, or table, got %s", v.Kind())
		}
		if p.root != nil {
			return p.rep.errorf(StageParse, line, "only one top-level map, list, or table is allowed")
		}
		p.root = v
		return nil
	}

	f.items++
	switch f.value.Kind() {
	case KindList:
		f.value.listVal.Append(v)

	case KindMap:
		if f.keys == awaitingKey {
			switch {
			case v.Kind() == KindTable:
				return p.rep.errorf(StageParse, line,
					"map keys may only be int, date, datetime, str, or bytes, got table; for bytes keys use (:HEX:) syntax")
			case !v.Kind().IsKey():
				return p.rep.errorf(StageParse, line,
					"map keys may only be int, date, datetime, str, or bytes, got %s", v.Kind())
			}
			f.key = v
			f.keys = awaitingValue
			return nil
		}
		if err := f.value.mapVal.Set(f.key, v); err != nil {
			return p.rep.errorf(StageParse, line, "%s", trimPrefix(err))
		}
		f.key = nil
		f.keys = awaitingKey

	case KindTable:
		t := f.value.tableVal
		if !v.Kind().IsScalar() {
			return p.rep.errorf(StageParse, line, "tables may only contain scalars, got %s", v.Kind())
		}
		if t.TType() == nil {
			return p.rep.errorf(StageParse, line, "expected ttype name at the start of the table, got %s", v.Kind())
		}
		if err := t.Append(v); err != nil {
			return p.rep.errorf(StageParse, line, "%s", trimPrefix(err))
		}
	}
	return nil
}

func trimPrefix(err error) string {
	return strings.TrimPrefix(err.Error(), "uxf: ")
}
