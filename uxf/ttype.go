package uxf

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// MaxIdentifierLen is the longest allowed ttype or field name.
const MaxIdentifierLen = 60

// Vocabulary tables. These are never modified.
var (
	// typeNames are the built-in type names, usable as list/map types.
	typeNames = map[string]Kind{
		"bool":     KindBool,
		"int":      KindInt,
		"real":     KindReal,
		"date":     KindDate,
		"datetime": KindDateTime,
		"str":      KindStr,
		"bytes":    KindBytes,
		"list":     KindList,
		"map":      KindMap,
		"table":    KindTable,
	}

	// keyTypeNames are the type names allowed as map key types.
	keyTypeNames = map[string]bool{
		"int": true, "date": true, "datetime": true, "str": true, "bytes": true,
	}

	// fieldTypeNames are the built-in type names allowed for table fields.
	fieldTypeNames = map[string]bool{
		"bool": true, "int": true, "real": true, "date": true,
		"datetime": true, "str": true, "bytes": true, "any": true,
	}

	boolNames = map[string]bool{
		"yes": true, "true": true, "no": false, "false": false,
	}
)

// Field is one named column of a ttype, with an optional value type.
type Field struct {
	Name  string
	VType string
}

// NewField creates a field, validating its name and value type.
func NewField(name, vtype string) (Field, error) {
	if err := checkFieldName(name); err != nil {
		return Field{}, err
	}
	if vtype != "" && !fieldTypeNames[vtype] && checkTTypeName(vtype) != nil {
		return Field{}, fmt.Errorf("uxf: invalid vtype %q for field %s", vtype, name)
	}
	return Field{Name: name, VType: vtype}, nil
}

// String returns the field as written in a ttype definition.
func (f Field) String() string {
	if f.VType == "" {
		return f.Name
	}
	return f.Name + ":" + f.VType
}

// TType is a named record schema. A TType is shared by reference between
// every table that uses it, so changes are visible through all of them.
type TType struct {
	name   string
	fields []Field
	gen    uint64 // bumped on every structural change
}

// NewTType creates a ttype. Names must start with an uppercase letter.
func NewTType(name string, fields ...Field) (*TType, error) {
	if err := checkTTypeName(name); err != nil {
		return nil, err
	}
	tt := &TType{name: name}
	for _, f := range fields {
		if err := tt.AppendField(f); err != nil {
			return nil, err
		}
	}
	return tt, nil
}

// MustTType is like NewTType but panics on error.
func MustTType(name string, fields ...Field) *TType {
	tt, err := NewTType(name, fields...)
	if err != nil {
		panic(err)
	}
	return tt
}

// Name returns the ttype name.
func (tt *TType) Name() string {
	return tt.name
}

// SetName renames the ttype.
func (tt *TType) SetName(name string) error {
	if err := checkTTypeName(name); err != nil {
		return err
	}
	tt.name = name
	tt.gen++
	return nil
}

// Len returns the number of fields.
func (tt *TType) Len() int {
	return len(tt.fields)
}

// Fields returns a copy of the fields in order.
func (tt *TType) Fields() []Field {
	out := make([]Field, len(tt.fields))
	copy(out, tt.fields)
	return out
}

// Field returns the i-th field.
func (tt *TType) Field(i int) Field {
	return tt.fields[i]
}

// FieldIndex returns the column of the named field, or -1.
func (tt *TType) FieldIndex(name string) int {
	for i, f := range tt.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// AppendField adds a field at the end.
func (tt *TType) AppendField(f Field) error {
	if _, err := NewField(f.Name, f.VType); err != nil {
		return err
	}
	if tt.FieldIndex(f.Name) >= 0 {
		return fmt.Errorf("uxf: duplicate field %s in ttype %s", f.Name, tt.name)
	}
	tt.fields = append(tt.fields, f)
	tt.gen++
	return nil
}

// SetField replaces the i-th field.
func (tt *TType) SetField(i int, f Field) error {
	if i < 0 || i >= len(tt.fields) {
		return fmt.Errorf("uxf: field index %d out of bounds (len=%d)", i, len(tt.fields))
	}
	if _, err := NewField(f.Name, f.VType); err != nil {
		return err
	}
	if j := tt.FieldIndex(f.Name); j >= 0 && j != i {
		return fmt.Errorf("uxf: duplicate field %s in ttype %s", f.Name, tt.name)
	}
	tt.fields[i] = f
	tt.gen++
	return nil
}

// RenameField renames a field, keeping its value type.
func (tt *TType) RenameField(oldName, newName string) error {
	i := tt.FieldIndex(oldName)
	if i < 0 {
		return fmt.Errorf("uxf: ttype %s has no field %s", tt.name, oldName)
	}
	return tt.SetField(i, Field{Name: newName, VType: tt.fields[i].VType})
}

// Equal reports whether two ttypes have the same name and fields.
func (tt *TType) Equal(o *TType) bool {
	if tt == nil || o == nil {
		return tt == o
	}
	if tt.name != o.name || len(tt.fields) != len(o.fields) {
		return false
	}
	for i := range tt.fields {
		if tt.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// String returns the ttype definition line without the trailing newline.
func (tt *TType) String() string {
	s := "= " + tt.name
	for _, f := range tt.fields {
		s += " " + f.String()
	}
	return s
}

func checkTTypeName(name string) error {
	r, _ := utf8.DecodeRuneInString(name)
	if name == "" || !unicode.IsUpper(r) {
		return fmt.Errorf("uxf: ttype names must start with an uppercase letter, got %q", name)
	}
	return checkIdentifier(name)
}

func checkFieldName(name string) error {
	r, _ := utf8.DecodeRuneInString(name)
	if name == "" || !(unicode.IsLetter(r) || r == '_') {
		return fmt.Errorf("uxf: field names must start with a letter or underscore, got %q", name)
	}
	return checkIdentifier(name)
}

func checkIdentifier(name string) error {
	if utf8.RuneCountInString(name) > MaxIdentifierLen {
		return fmt.Errorf("uxf: identifier %q is longer than %d characters", name, MaxIdentifierLen)
	}
	for _, r := range name {
		if !isIdentRune(r) {
			return fmt.Errorf("uxf: invalid character %q in identifier %q", r, name)
		}
	}
	return nil
}

func isReserved(name string) bool {
	if _, ok := typeNames[name]; ok {
		return true
	}
	_, ok := boolNames[name]
	return ok || name == "any"
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ============================================================
// Table
// ============================================================

// Table holds records of a ttype. Values are appended field by field;
// record lengths are only validated when records are read.
type Table struct {
	Comment string

	ttype   *TType
	records [][]*Value

	// Named-record index, rebuilt when the ttype changes.
	cacheType *TType
	cacheGen  uint64
	index     map[string]int
}

// NewTable creates an empty table of the given ttype.
func NewTable(tt *TType) *Table {
	return &Table{ttype: tt}
}

// TType returns the table's (possibly shared) ttype.
func (t *Table) TType() *TType {
	return t.ttype
}

// SetTType changes the table's ttype.
func (t *Table) SetTType(tt *TType) {
	t.ttype = tt
}

// Name returns the ttype name, or "" if the table has no ttype.
func (t *Table) Name() string {
	if t.ttype == nil {
		return ""
	}
	return t.ttype.name
}

// Append adds one value, filling the last record or starting a new one.
func (t *Table) Append(v *Value) error {
	if t.ttype == nil {
		return fmt.Errorf("uxf: cannot append to a table without a ttype")
	}
	n := len(t.ttype.fields)
	if n == 0 {
		return fmt.Errorf("uxf: cannot append to table %s: ttype has no fields", t.ttype.name)
	}
	if v == nil {
		v = Null()
	}
	if last := len(t.records) - 1; last >= 0 && len(t.records[last]) < n {
		t.records[last] = append(t.records[last], v)
		return nil
	}
	rec := make([]*Value, 1, n)
	rec[0] = v
	t.records = append(t.records, rec)
	return nil
}

// AppendRecord adds a complete record. Its length is not checked.
func (t *Table) AppendRecord(values ...*Value) {
	t.records = append(t.records, values)
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// RawRecords returns the records without validating their lengths. The
// slice must not be modified.
func (t *Table) RawRecords() [][]*Value {
	return t.records
}

// Record returns the i-th record, failing if its length does not match
// the ttype.
func (t *Table) Record(i int) ([]*Value, error) {
	if i < 0 || i >= len(t.records) {
		return nil, fmt.Errorf("uxf: record %d out of bounds (len=%d)", i, len(t.records))
	}
	rec := t.records[i]
	if t.ttype == nil || len(rec) != len(t.ttype.fields) {
		return nil, fmt.Errorf("uxf: table %s record %d has %d values, expected %d",
			t.Name(), i, len(rec), t.fieldCount())
	}
	return rec, nil
}

// Records returns all records, failing on the first one of wrong length.
func (t *Table) Records() ([][]*Value, error) {
	for i := range t.records {
		if _, err := t.Record(i); err != nil {
			return nil, err
		}
	}
	return t.records, nil
}

// Get returns the named field of the i-th record.
func (t *Table) Get(i int, field string) (*Value, error) {
	rec, err := t.Record(i)
	if err != nil {
		return nil, err
	}
	col, ok := t.fieldIndex()[field]
	if !ok {
		return nil, fmt.Errorf("uxf: ttype %s has no field %s", t.Name(), field)
	}
	return rec[col], nil
}

// RecordMap returns the i-th record keyed by field name.
func (t *Table) RecordMap(i int) (map[string]*Value, error) {
	rec, err := t.Record(i)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Value, len(rec))
	for name, col := range t.fieldIndex() {
		out[name] = rec[col]
	}
	return out, nil
}

// fieldIndex returns the cached name → column index, rebuilding it after
// the table's ttype was replaced or structurally changed.
func (t *Table) fieldIndex() map[string]int {
	if t.index == nil || t.cacheType != t.ttype || t.cacheGen != t.ttype.gen {
		t.index = make(map[string]int, len(t.ttype.fields))
		for i, f := range t.ttype.fields {
			t.index[f.Name] = i
		}
		t.cacheType = t.ttype
		t.cacheGen = t.ttype.gen
	}
	return t.index
}

func (t *Table) fieldCount() int {
	if t.ttype == nil {
		return 0
	}
	return len(t.ttype.fields)
}

// Equal reports whether two tables have equal ttypes, comments and records.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Comment != o.Comment || !t.ttype.Equal(o.ttype) || len(t.records) != len(o.records) {
		return false
	}
	for i := range t.records {
		if len(t.records[i]) != len(o.records[i]) {
			return false
		}
		for j := range t.records[i] {
			if !t.records[i][j].Equal(o.records[i][j]) {
				return false
			}
		}
	}
	return true
}
