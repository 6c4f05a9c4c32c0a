package uxf

import (
	"bytes"
	"fmt"
	"time"
)

// Kind represents UXF value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindDate
	KindDateTime
	KindStr
	KindBytes
	KindList
	KindMap
	KindTable
)

// String returns the UXF type name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// IsScalar reports whether values of this kind are scalars.
func (k Kind) IsScalar() bool {
	return k <= KindBytes
}

// IsKey reports whether values of this kind may be used as map keys.
func (k Kind) IsKey() bool {
	switch k {
	case KindInt, KindDate, KindDateTime, KindStr, KindBytes:
		return true
	}
	return false
}

// Value represents a UXF value.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal  bool
	intVal   int64
	realVal  float64
	timeVal  time.Time // date (midnight UTC) or datetime
	strVal   string
	bytesVal []byte

	// Collection values
	listVal  *List
	mapVal   *Map
	tableVal *Table
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInt, intVal: v}
}

// Real creates a real (floating point) value.
func Real(v float64) *Value {
	return &Value{kind: KindReal, realVal: v}
}

// Date creates a date value. The time of day and location are dropped.
func Date(v time.Time) *Value {
	y, m, d := v.Date()
	return &Value{kind: KindDate, timeVal: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf creates a date value from its parts.
func DateOf(year int, month time.Month, day int) *Value {
	return &Value{kind: KindDate, timeVal: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateTime creates a datetime value.
func DateTime(v time.Time) *Value {
	return &Value{kind: KindDateTime, timeVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindStr, strVal: v}
}

// Bytes creates a bytes value.
func Bytes(v []byte) *Value {
	return &Value{kind: KindBytes, bytesVal: v}
}

// ListValue wraps a list.
func ListValue(l *List) *Value {
	return &Value{kind: KindList, listVal: l}
}

// MapValue wraps a map.
func MapValue(m *Map) *Value {
	return &Value{kind: KindMap, mapVal: m}
}

// TableValue wraps a table.
func TableValue(t *Table) *Value {
	return &Value{kind: KindTable, tableVal: t}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull returns true if this is a null value.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// IsScalar reports whether v is a scalar (including null).
func IsScalar(v *Value) bool {
	return v.Kind().IsScalar()
}

func (v *Value) expect(k Kind) error {
	if v == nil {
		return fmt.Errorf("uxf: nil value")
	}
	if v.kind != k {
		return fmt.Errorf("uxf: expected %s, got %s", k, v.kind)
	}
	return nil
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if err := v.expect(KindInt); err != nil {
		return 0, err
	}
	return v.intVal, nil
}

// AsReal returns the real value.
func (v *Value) AsReal() (float64, error) {
	if err := v.expect(KindReal); err != nil {
		return 0, err
	}
	return v.realVal, nil
}

// AsDate returns the date as a time at midnight UTC.
func (v *Value) AsDate() (time.Time, error) {
	if err := v.expect(KindDate); err != nil {
		return time.Time{}, err
	}
	return v.timeVal, nil
}

// AsDateTime returns the datetime value.
func (v *Value) AsDateTime() (time.Time, error) {
	if err := v.expect(KindDateTime); err != nil {
		return time.Time{}, err
	}
	return v.timeVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if err := v.expect(KindStr); err != nil {
		return "", err
	}
	return v.strVal, nil
}

// AsBytes returns the bytes value.
func (v *Value) AsBytes() ([]byte, error) {
	if err := v.expect(KindBytes); err != nil {
		return nil, err
	}
	return v.bytesVal, nil
}

// AsList returns the list.
func (v *Value) AsList() (*List, error) {
	if err := v.expect(KindList); err != nil {
		return nil, err
	}
	return v.listVal, nil
}

// AsMap returns the map.
func (v *Value) AsMap() (*Map, error) {
	if err := v.expect(KindMap); err != nil {
		return nil, err
	}
	return v.mapVal, nil
}

// AsTable returns the table.
func (v *Value) AsTable() (*Table, error) {
	if err := v.expect(KindTable); err != nil {
		return nil, err
	}
	return v.tableVal, nil
}

// String returns a short debug representation.
func (v *Value) String() string {
	switch v.Kind() {
	case KindList:
		return fmt.Sprintf("list(%d)", v.listVal.Len())
	case KindMap:
		return fmt.Sprintf("map(%d)", v.mapVal.Len())
	case KindTable:
		return fmt.Sprintf("table %s(%d)", v.tableVal.Name(), v.tableVal.Len())
	}
	return scalarText(v, false)
}

// Equal reports whether two values are structurally equal. Collection
// comments and declared types take part in the comparison; tables compare
// their ttypes by name and fields.
func (v *Value) Equal(o *Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == o.boolVal
	case KindInt:
		return v.intVal == o.intVal
	case KindReal:
		return v.realVal == o.realVal
	case KindDate, KindDateTime:
		return v.timeVal.Equal(o.timeVal)
	case KindStr:
		return v.strVal == o.strVal
	case KindBytes:
		return bytes.Equal(v.bytesVal, o.bytesVal)
	case KindList:
		return v.listVal.Equal(o.listVal)
	case KindMap:
		return v.mapVal.Equal(o.mapVal)
	case KindTable:
		return v.tableVal.Equal(o.tableVal)
	}
	return false
}

// ============================================================
// Document
// ============================================================

// Uxf is a UXF document: exactly one top-level collection, the optional
// custom header text and the ttypes the document defines.
type Uxf struct {
	Data   *Value
	Custom string
	TTypes map[string]*TType
}

// NewUxf creates a document around a list, map or table value.
func NewUxf(data *Value) (*Uxf, error) {
	if data == nil {
		data = ListValue(NewList(""))
	}
	if data.Kind().IsScalar() {
		return nil, fmt.Errorf("uxf: data must be a list, map, or table, got %s", data.Kind())
	}
	u := &Uxf{Data: data, TTypes: make(map[string]*TType)}
	collectTTypes(data, u.TTypes)
	return u, nil
}

// AddTType registers a ttype with the document.
func (u *Uxf) AddTType(tt *TType) {
	if u.TTypes == nil {
		u.TTypes = make(map[string]*TType)
	}
	u.TTypes[tt.Name()] = tt
}

// collectTTypes records the ttype of every table reachable from v under
// its current name. The first ttype seen for a name wins.
func collectTTypes(v *Value, into map[string]*TType) {
	walkTTypes(v, func(tt *TType) {
		if _, ok := into[tt.Name()]; !ok {
			into[tt.Name()] = tt
		}
	})
}

// walkTTypes calls fn with the ttype of every table reachable from v.
func walkTTypes(v *Value, fn func(*TType)) {
	switch v.Kind() {
	case KindList:
		for _, e := range v.listVal.Values {
			walkTTypes(e, fn)
		}
	case KindMap:
		for _, e := range v.mapVal.entries {
			walkTTypes(e.Value, fn)
		}
	case KindTable:
		if tt := v.tableVal.TType(); tt != nil {
			fn(tt)
		}
	}
}

// ============================================================
// List
// ============================================================

// List is an ordered sequence of values with an optional comment and
// declared value type.
type List struct {
	Comment string
	VType   string
	Values  []*Value
}

// NewList creates a list.
func NewList(vtype string, values ...*Value) *List {
	return &List{VType: vtype, Values: values}
}

// Append adds a value to the list.
func (l *List) Append(v *Value) {
	l.Values = append(l.Values, v)
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Values)
}

// Index returns the i-th element.
func (l *List) Index(i int) (*Value, error) {
	if i < 0 || i >= len(l.Values) {
		return nil, fmt.Errorf("uxf: index %d out of bounds (len=%d)", i, len(l.Values))
	}
	return l.Values[i], nil
}

// Equal reports whether two lists are structurally equal.
func (l *List) Equal(o *List) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.Comment != o.Comment || l.VType != o.VType || len(l.Values) != len(o.Values) {
		return false
	}
	for i := range l.Values {
		if !l.Values[i].Equal(o.Values[i]) {
			return false
		}
	}
	return true
}
