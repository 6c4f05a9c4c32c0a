package uxf

import (
	"math"
	"strconv"
)

// checker reconciles the values of one collection with its declared types.
type checker struct {
	rep      *reporter
	fixTypes bool
	line     int
}

// Check runs the type checker over every collection in doc, innermost
// first, as parsing with ParseOptions.Check does.
func Check(doc *Uxf, opts ParseOptions) error {
	c := &checker{rep: opts.reporter(), fixTypes: opts.FixTypes}
	return c.walk(doc.Data)
}

func (c *checker) walk(v *Value) error {
	switch v.Kind() {
	case KindList:
		for _, e := range v.listVal.Values {
			if err := c.walk(e); err != nil {
				return err
			}
		}
	case KindMap:
		for _, e := range v.mapVal.entries {
			if err := c.walk(e.Value); err != nil {
				return err
			}
		}
	}
	return c.check(v)
}

// check reconciles the direct children of a closed collection.
func (c *checker) check(v *Value) error {
	switch v.Kind() {
	case KindList:
		return c.checkList(v.listVal)
	case KindMap:
		return c.checkMap(v.mapVal)
	case KindTable:
		return c.checkTable(v.tableVal)
	}
	return nil
}

func (c *checker) checkList(l *List) error {
	if l.VType == "" {
		return nil
	}
	for i, e := range l.Values {
		nv, err := c.reconcile(e, l.VType, "value")
		if err != nil {
			return err
		}
		l.Values[i] = nv
	}
	return nil
}

func (c *checker) checkMap(m *Map) error {
	if m.KType == "" && m.VType == "" {
		return nil
	}
	entries := make([]MapEntry, len(m.entries))
	rekeyed := false
	for i, e := range m.entries {
		k, err := c.reconcile(e.Key, m.KType, "key")
		if err != nil {
			return err
		}
		if k != e.Key {
			if !k.Kind().IsKey() {
				k = e.Key
			} else {
				rekeyed = true
			}
		}
		val, err := c.reconcile(e.Value, m.VType, "value")
		if err != nil {
			return err
		}
		entries[i] = MapEntry{Key: k, Value: val}
	}
	if rekeyed {
		m.replaceEntries(entries)
	} else {
		copy(m.entries, entries)
	}
	return nil
}

func (c *checker) checkTable(t *Table) error {
	tt := t.TType()
	if tt == nil {
		return nil
	}
	for i, rec := range t.records {
		if len(rec) != len(tt.fields) {
			if err := c.rep.warnf(StageCheck, c.line, "table %s record %d has %d values, expected %d",
				tt.name, i, len(rec), len(tt.fields)); err != nil {
				return err
			}
		}
		for j, val := range rec {
			if j >= len(tt.fields) || tt.fields[j].VType == "" {
				continue
			}
			nv, err := c.reconcile(val, tt.fields[j].VType, "value")
			if err != nil {
				return err
			}
			rec[j] = nv
		}
	}
	return nil
}

// reconcile returns v if it matches vtype, a coerced value if fixing types
// succeeds, or v after reporting a warning.
func (c *checker) reconcile(v *Value, vtype, what string) (*Value, error) {
	if matchesType(v, vtype) {
		return v, nil
	}
	if c.fixTypes {
		if nv := fixType(v, vtype); nv != nil && matchesType(nv, vtype) {
			return nv, nil
		}
	}
	return v, c.rep.warnf(StageCheck, c.line, "expected %s of type %s, got %s of type %s",
		what, vtype, describe(v), v.Kind())
}

// matchesType reports whether v satisfies a declared type. Null satisfies
// every type.
func matchesType(v *Value, vtype string) bool {
	if vtype == "" || vtype == "any" || v.IsNull() {
		return true
	}
	if k, ok := typeNames[vtype]; ok {
		return v.Kind() == k
	}
	return v.Kind() == KindTable && v.tableVal.Name() == vtype
}

// fixType attempts a best-effort conversion of v to vtype, returning nil
// when no conversion applies.
func fixType(v *Value, vtype string) *Value {
	switch {
	case v.Kind() == KindStr && vtype != "str":
		switch vtype {
		case "bool", "int", "real", "date", "datetime":
			return fixNumber(Naturalize(v.strVal), vtype)
		}
	case vtype == "str" && v.Kind().IsScalar():
		return Str(plainText(v))
	}
	return fixNumber(v, vtype)
}

func fixNumber(v *Value, vtype string) *Value {
	switch {
	case vtype == "real" && v.Kind() == KindInt:
		return Real(float64(v.intVal))
	case vtype == "int" && v.Kind() == KindReal:
		r := math.Round(v.realVal)
		if math.IsNaN(r) || r > math.MaxInt64 || r < math.MinInt64 {
			return nil
		}
		return Int(int64(r))
	}
	return v
}

// plainText renders a scalar without UXF delimiters.
func plainText(v *Value) string {
	switch v.Kind() {
	case KindStr:
		return v.strVal
	case KindBytes:
		return hexUpper(v.bytesVal)
	case KindReal:
		return strconv.FormatFloat(v.realVal, 'g', -1, 64)
	}
	return scalarText(v, false)
}

func describe(v *Value) string {
	if v.Kind().IsScalar() {
		return scalarText(v, false)
	}
	return v.String()
}
