package uxf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// ============================================================
// Go Data Bridge
// ============================================================
//
// Converts between plain Go data and Value trees. Lists come from slices,
// maps from maps with int, string or time.Time keys. Arrays and sets
// (map[T]struct{}) only convert with EmitOptions.OneWayConversion, since
// they read back as lists.

var (
	timeType  = reflect.TypeOf(time.Time{})
	emptyType = reflect.TypeOf(struct{}{})
)

// FromAny converts Go data to a Value. Values that have no UXF equivalent
// are reported through opts.OnDiagnostic and become null.
func FromAny(x any, opts EmitOptions) *Value {
	b := &bridge{opts: opts, rep: newReporter("-", false, opts.OnDiagnostic)}
	return b.from(x)
}

type bridge struct {
	opts EmitOptions
	rep  *reporter
}

func (b *bridge) from(x any) *Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case *Value:
		if v == nil {
			return Null()
		}
		return v
	case Value:
		return &v
	case *List:
		return ListValue(v)
	case *Map:
		return MapValue(v)
	case *Table:
		return TableValue(v)
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float64:
		return Real(v)
	case string:
		return Str(v)
	case []byte:
		return Bytes(v)
	case time.Time:
		return DateTime(v)
	case []any:
		l := NewList("")
		for _, e := range v {
			l.Append(b.from(e))
		}
		return ListValue(l)
	}
	return b.fromReflect(reflect.ValueOf(x))
}

func (b *bridge) fromReflect(rv reflect.Value) *Value {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return b.from(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			b.diagnose("uint %d overflows int, wrote null instead", u)
			return Null()
		}
		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Real(rv.Float())
	case reflect.String:
		return Str(rv.String())
	case reflect.Struct:
		if rv.Type() == timeType {
			return DateTime(rv.Interface().(time.Time))
		}
	case reflect.Slice:
		if rv.IsNil() {
			return ListValue(NewList(""))
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(rv.Bytes())
		}
		return b.fromSequence(rv)
	case reflect.Array:
		if !b.opts.OneWayConversion {
			break
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return Bytes(raw)
		}
		return b.fromSequence(rv)
	case reflect.Map:
		if rv.Type().Elem() == emptyType {
			if b.opts.OneWayConversion {
				return b.fromSet(rv)
			}
			break
		}
		return b.fromMap(rv)
	}
	b.diagnose("cannot write value of type %s, wrote null instead", typeName(rv))
	return Null()
}

func (b *bridge) fromSequence(rv reflect.Value) *Value {
	l := NewList("")
	for i := 0; i < rv.Len(); i++ {
		l.Append(b.from(rv.Index(i).Interface()))
	}
	return ListValue(l)
}

// fromSet yields a list of the set's members in key order.
func (b *bridge) fromSet(rv reflect.Value) *Value {
	keys := b.mapKeys(rv)
	l := NewList("")
	for _, k := range keys {
		l.Append(k.key)
	}
	return ListValue(l)
}

func (b *bridge) fromMap(rv reflect.Value) *Value {
	m := NewMap("", "")
	for _, k := range b.mapKeys(rv) {
		// Keys from mapKeys are always valid.
		_ = m.Set(k.key, b.from(rv.MapIndex(k.rv).Interface()))
	}
	return MapValue(m)
}

type bridgeKey struct {
	key *Value
	rv  reflect.Value
}

// mapKeys converts and sorts the keys of a Go map. Keys with no UXF
// equivalent are reported and skipped.
func (b *bridge) mapKeys(rv reflect.Value) []bridgeKey {
	keys := make([]bridgeKey, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		key := b.from(k.Interface())
		if !key.Kind().IsKey() {
			b.diagnose("cannot use %s as a map key, skipped", typeName(k))
			continue
		}
		keys = append(keys, bridgeKey{key: key, rv: k})
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareKeys(keys[i].key, keys[j].key) < 0
	})
	return keys
}

// compareKeys orders map keys by kind, then by value.
func compareKeys(a, b *Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindInt:
		switch {
		case a.intVal < b.intVal:
			return -1
		case a.intVal > b.intVal:
			return 1
		}
		return 0
	case KindDate, KindDateTime:
		return a.timeVal.Compare(b.timeVal)
	case KindBytes:
		return bytes.Compare(a.bytesVal, b.bytesVal)
	}
	switch {
	case a.strVal < b.strVal:
		return -1
	case a.strVal > b.strVal:
		return 1
	}
	return 0
}

func typeName(rv reflect.Value) string {
	if !rv.IsValid() {
		return "invalid"
	}
	return rv.Type().String()
}

func (b *bridge) diagnose(format string, args ...interface{}) {
	b.rep.warnf(StageWrite, 0, format, args...)
}

// ============================================================
// ToAny / ToJSON
// ============================================================

// ToAny converts a Value to plain Go data: nil, bool, int64, float64,
// time.Time, string, []byte, []any for lists, map[string]any for maps
// (keys rendered as plain text) and []map[string]any for tables, one map
// per record keyed by field name.
func ToAny(v *Value) any {
	return toAny(v, false)
}

// ToJSON renders a Value as JSON. Dates and datetimes become ISO-8601
// strings, bytes become base64 strings, non-finite reals become null.
func ToJSON(v *Value) ([]byte, error) {
	return json.Marshal(toAny(v, true))
}

// ToJSONIndent is ToJSON with indentation.
func ToJSONIndent(v *Value, indent string) ([]byte, error) {
	return json.MarshalIndent(toAny(v, true), "", indent)
}

func toAny(v *Value, forJSON bool) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindReal:
		if forJSON && (math.IsNaN(v.realVal) || math.IsInf(v.realVal, 0)) {
			return nil
		}
		return v.realVal
	case KindDate, KindDateTime:
		if forJSON {
			return scalarText(v, false)
		}
		return v.timeVal
	case KindStr:
		return v.strVal
	case KindBytes:
		return v.bytesVal
	case KindList:
		out := make([]any, len(v.listVal.Values))
		for i, e := range v.listVal.Values {
			out[i] = toAny(e, forJSON)
		}
		return out
	case KindMap:
		out := make(map[string]any, v.mapVal.Len())
		for _, e := range v.mapVal.entries {
			out[plainText(e.Key)] = toAny(e.Value, forJSON)
		}
		return out
	case KindTable:
		t := v.tableVal
		out := make([]map[string]any, 0, t.Len())
		for _, rec := range t.records {
			row := make(map[string]any, len(rec))
			for i, val := range rec {
				name := strconv.Itoa(i)
				if tt := t.TType(); tt != nil && i < tt.Len() {
					name = tt.fields[i].Name
				}
				row[name] = toAny(val, forJSON)
			}
			out = append(out, row)
		}
		return out
	}
	return nil
}

// ============================================================
// FromJSON
// ============================================================

// FromJSON converts JSON to a Value. Whole numbers become ints, objects
// become maps with str keys in key order.
func FromJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, fmt.Errorf("uxf: JSON parse error: %w", err)
	}
	return fromJSONValue(x)
}

func fromJSONValue(x any) (*Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("uxf: invalid JSON number %s", v)
		}
		return Real(f), nil
	case string:
		return Str(v), nil
	case []any:
		l := NewList("")
		for _, e := range v {
			ev, err := fromJSONValue(e)
			if err != nil {
				return nil, err
			}
			l.Append(ev)
		}
		return ListValue(l), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap("", "")
		for _, k := range keys {
			ev, err := fromJSONValue(v[k])
			if err != nil {
				return nil, err
			}
			if err := m.Set(Str(k), ev); err != nil {
				return nil, err
			}
		}
		return MapValue(m), nil
	}
	return nil, fmt.Errorf("uxf: unsupported JSON value %T", x)
}
