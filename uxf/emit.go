package uxf

import (
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EmitOptions configures the writer.
type EmitOptions struct {
	// Indent is written once per nesting level (default: "  ").
	Indent string

	// UseTrueFalse writes bools as true/false instead of yes/no.
	UseTrueFalse bool

	// OneWayConversion accepts Go data that cannot be read back as the
	// same Go type: arrays, byte arrays and sets become lists or bytes.
	OneWayConversion bool

	// OnDiagnostic receives a report for each value that could not be
	// written. Nil prints to stderr. Writing continues either way.
	OnDiagnostic func(*Error)
}

// DefaultEmitOptions returns sensible defaults.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{Indent: "  "}
}

// Dumps converts data to UXF text. data may be a *Uxf, a collection
// *Value, a *List, *Map or *Table, or plain Go data (see FromAny).
func Dumps(data any, opts EmitOptions) (string, error) {
	doc, err := toDocument(data, opts)
	if err != nil {
		return "", err
	}
	e := &emitter{opts: opts, rep: newReporter("-", false, opts.OnDiagnostic)}
	if e.opts.Indent == "" {
		e.opts.Indent = DefaultEmitOptions().Indent
	}
	e.emitDocument(doc)
	if e.err != nil {
		return "", e.err
	}
	return e.sb.String(), nil
}

// Dump writes data as UXF text to w.
func Dump(w io.Writer, data any, opts EmitOptions) error {
	text, err := Dumps(data, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

func toDocument(data any, opts EmitOptions) (*Uxf, error) {
	switch d := data.(type) {
	case *Uxf:
		if d.Data.Kind().IsScalar() {
			return nil, &Error{Stage: StageWrite, Source: "-",
				Message: "data must be a list, map, or table, got " + d.Data.Kind().String()}
		}
		return d, nil
	case *Value:
		return newDocument(d)
	case Value:
		return newDocument(&d)
	}
	return newDocument(FromAny(data, opts))
}

func newDocument(v *Value) (*Uxf, error) {
	doc, err := NewUxf(v)
	if err != nil {
		return nil, &Error{Stage: StageWrite, Source: "-", Message: trimPrefix(err)}
	}
	return doc, nil
}

type emitter struct {
	sb   strings.Builder
	opts EmitOptions
	rep  *reporter
	err  error // first fatal error
}

func (e *emitter) emitDocument(doc *Uxf) {
	e.sb.WriteString("uxf ")
	e.sb.WriteString(VersionText)
	if doc.Custom != "" {
		if strings.ContainsAny(doc.Custom, "\r\n") {
			e.fail("custom header text cannot contain a line break: %q", doc.Custom)
		}
		e.sb.WriteByte(' ')
		e.sb.WriteString(doc.Custom)
	}
	e.sb.WriteByte('\n')

	// Declarations are keyed by each ttype's current name, which differs
	// from its doc.TTypes key after a rename.
	ttypes := make(map[string]*TType, len(doc.TTypes))
	declare := func(tt *TType) {
		prev, ok := ttypes[tt.Name()]
		switch {
		case !ok:
			ttypes[tt.Name()] = tt
		case prev != tt && prev.String() != tt.String():
			e.fail("conflicting definitions of ttype %s", tt.Name())
		}
	}
	for _, tt := range doc.TTypes {
		if tt != nil {
			declare(tt)
		}
	}
	walkTTypes(doc.Data, declare)
	names := make([]string, 0, len(ttypes))
	for name := range ttypes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.sb.WriteString(ttypes[name].String())
		e.sb.WriteByte('\n')
	}

	e.emit(doc.Data, 0)
	e.sb.WriteByte('\n')
}

func (e *emitter) emit(v *Value, depth int) {
	switch v.Kind() {
	case KindList:
		e.emitList(v.listVal, depth)
	case KindMap:
		e.emitMap(v.mapVal, depth)
	case KindTable:
		e.emitTable(v.tableVal, depth)
	default:
		e.emitScalar(v)
	}
}

func (e *emitter) emitScalar(v *Value) {
	if !v.Kind().IsScalar() {
		e.diagnose("cannot write %s where a scalar is required, wrote null instead", v.Kind())
		e.sb.WriteByte('?')
		return
	}
	if v.Kind() == KindReal && (math.IsNaN(v.realVal) || math.IsInf(v.realVal, 0)) {
		e.diagnose("cannot write non-finite real %v, wrote null instead", v.realVal)
		e.sb.WriteByte('?')
		return
	}
	e.sb.WriteString(scalarText(v, e.opts.UseTrueFalse))
}

// emitHeader writes the comment and declared types opening a collection,
// reporting whether anything was written.
func (e *emitter) emitHeader(comment string, types ...string) bool {
	wrote := false
	if comment != "" {
		e.sb.WriteString("#<")
		e.sb.WriteString(escapeString(comment))
		e.sb.WriteByte('>')
		wrote = true
	}
	for _, t := range types {
		if t == "" {
			continue
		}
		if wrote {
			e.sb.WriteByte(' ')
		}
		e.sb.WriteString(t)
		wrote = true
	}
	return wrote
}

// emitList writes a list on one line when it has at most one element or
// its first element is a scalar, otherwise one element per line.
func (e *emitter) emitList(l *List, depth int) {
	e.sb.WriteByte('[')
	hdr := e.emitHeader(l.Comment, l.VType)

	if len(l.Values) <= 1 || IsScalar(l.Values[0]) {
		for i, v := range l.Values {
			if hdr || i > 0 {
				e.sb.WriteByte(' ')
			}
			e.emit(v, depth)
		}
		e.sb.WriteByte(']')
		return
	}

	e.sb.WriteByte('\n')
	for _, v := range l.Values {
		e.writeIndent(depth + 1)
		e.emit(v, depth+1)
		e.sb.WriteByte('\n')
	}
	e.writeIndent(depth)
	e.sb.WriteByte(']')
}

// emitMap writes a map with at most one entry on one line, otherwise one
// key-value pair per line.
func (e *emitter) emitMap(m *Map, depth int) {
	e.sb.WriteByte('{')
	vtype := m.VType
	ktype := m.KType
	if ktype == "" && vtype != "" {
		// A lone vtype would be read back as the ktype.
		ktype = "str"
		if len(m.entries) > 0 {
			ktype = m.entries[0].Key.Kind().String()
		}
	}
	hdr := e.emitHeader(m.Comment, ktype, vtype)

	if len(m.entries) <= 1 {
		for _, entry := range m.entries {
			if hdr {
				e.sb.WriteByte(' ')
			}
			e.emitScalar(entry.Key)
			e.sb.WriteByte(' ')
			e.emit(entry.Value, depth)
		}
		e.sb.WriteByte('}')
		return
	}

	e.sb.WriteByte('\n')
	for _, entry := range m.entries {
		e.writeIndent(depth + 1)
		e.emitScalar(entry.Key)
		e.sb.WriteByte(' ')
		e.emit(entry.Value, depth+1)
		e.sb.WriteByte('\n')
	}
	e.writeIndent(depth)
	e.sb.WriteByte('}')
}

// emitTable writes a table with at most one record on one line, otherwise
// one record per line.
func (e *emitter) emitTable(t *Table, depth int) {
	if t.TType() == nil {
		e.fail("cannot write a table with no ttype")
	}
	e.sb.WriteByte('(')
	e.emitHeader(t.Comment, t.Name())

	if len(t.records) <= 1 {
		for _, rec := range t.records {
			for _, v := range rec {
				e.sb.WriteByte(' ')
				e.emitScalar(v)
			}
		}
		e.sb.WriteByte(')')
		return
	}

	e.sb.WriteByte('\n')
	for _, rec := range t.records {
		e.writeIndent(depth + 1)
		for i, v := range rec {
			if i > 0 {
				e.sb.WriteByte(' ')
			}
			e.emitScalar(v)
		}
		e.sb.WriteByte('\n')
	}
	e.writeIndent(depth)
	e.sb.WriteByte(')')
}

func (e *emitter) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}

// fail records the first fatal write error.
func (e *emitter) fail(format string, args ...interface{}) {
	if e.err == nil {
		e.err = e.rep.errorf(StageWrite, 0, format, args...)
	}
}

func (e *emitter) diagnose(format string, args ...interface{}) {
	e.rep.warnf(StageWrite, 0, format, args...)
}

// ============================================================
// Scalar Encoding
// ============================================================

// scalarText returns the UXF text of a scalar value. Non-finite reals
// have no UXF text and are handled by the emitter.
func scalarText(v *Value, trueFalse bool) string {
	switch v.Kind() {
	case KindNull:
		return "?"
	case KindBool:
		switch {
		case trueFalse && v.boolVal:
			return "true"
		case trueFalse:
			return "false"
		case v.boolVal:
			return "yes"
		default:
			return "no"
		}
	case KindInt:
		return strconv.FormatInt(v.intVal, 10)
	case KindReal:
		return formatReal(v.realVal)
	case KindDate:
		return v.timeVal.Format("2006-01-02")
	case KindDateTime:
		return formatDateTime(v.timeVal)
	case KindStr:
		return "<" + escapeString(v.strVal) + ">"
	case KindBytes:
		return "(:" + hexUpper(v.bytesVal) + ":)"
	}
	return "?"
}

// formatReal uses the shortest representation that round-trips and always
// includes a decimal point or exponent so it reads back as a real.
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// formatDateTime writes times with a zero offset without one, others with
// ±hh:mm, and fractional seconds only when present.
func formatDateTime(t time.Time) string {
	layout := "2006-01-02T15:04:05.999999999"
	if _, offset := t.Zone(); offset != 0 {
		layout += "-07:00"
	}
	return t.Format(layout)
}
