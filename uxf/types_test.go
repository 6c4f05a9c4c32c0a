package uxf

import (
	"testing"
	"time"
)

func TestValue_Accessors(t *testing.T) {
	if _, err := Int(1).AsStr(); err == nil {
		t.Error("Expected AsStr on int to fail")
	}
	var nilValue *Value
	if !nilValue.IsNull() || nilValue.Kind() != KindNull {
		t.Error("Expected nil *Value to be null")
	}
	if _, err := nilValue.AsInt(); err == nil {
		t.Error("Expected AsInt on nil to fail")
	}

	d := Date(time.Date(2022, 3, 4, 22, 30, 0, 0, time.FixedZone("", -5*3600)))
	got, _ := d.AsDate()
	if !got.Equal(time.Date(2022, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected date to drop the time of day, got %v", got)
	}
}

func TestNewUxf(t *testing.T) {
	doc, err := NewUxf(nil)
	if err != nil {
		t.Fatalf("NewUxf failed: %v", err)
	}
	if doc.Data.Kind() != KindList {
		t.Errorf("Expected empty list, got %s", doc.Data.Kind())
	}
	if _, err := NewUxf(Str("x")); err == nil {
		t.Error("Expected scalar data to be rejected")
	}

	tt := MustTType("Point", Field{Name: "x"})
	doc, _ = NewUxf(ListValue(NewList("", TableValue(NewTable(tt)))))
	if doc.TTypes["Point"] != tt {
		t.Error("Expected NewUxf to collect table ttypes")
	}
}

func TestMap_Order(t *testing.T) {
	m := NewMap("", "")
	for _, k := range []string{"c", "a", "b"} {
		if err := m.Set(Str(k), Str(k)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	_ = m.Set(Str("a"), Int(1))
	if m.Len() != 3 {
		t.Fatalf("Expected 3 entries, got %d", m.Len())
	}
	var order string
	for _, k := range m.Keys() {
		s, _ := k.AsStr()
		order += s
	}
	if order != "cab" {
		t.Errorf("Expected insertion order cab, got %s", order)
	}
	if v, _ := m.GetStr("a"); !v.Equal(Int(1)) {
		t.Errorf("Expected replaced value, got %s", v)
	}
}

func TestMap_Keys(t *testing.T) {
	m := NewMap("", "")
	for _, k := range []*Value{Real(1), Bool(true), Null(), ListValue(NewList(""))} {
		if err := m.Set(k, Int(1)); err == nil {
			t.Errorf("Expected %s key to be rejected", k.Kind())
		}
	}

	when := time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = m.Set(DateTime(when), Str("utc"))
	_ = m.Set(DateTime(when.In(time.FixedZone("", 3600))), Str("same instant"))
	_ = m.Set(Int(5), Str("int"))
	_ = m.Set(Str("5"), Str("str"))
	_ = m.Set(Bytes([]byte("5")), Str("bytes"))
	if m.Len() != 4 {
		t.Errorf("Expected 4 distinct keys, got %d", m.Len())
	}
}

func TestTable_Append(t *testing.T) {
	tt := MustTType("Pair", Field{Name: "a"}, Field{Name: "b"})
	table := NewTable(tt)
	for i := int64(1); i <= 5; i++ {
		if err := table.Append(Int(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if table.Len() != 3 {
		t.Fatalf("Expected 3 records, got %d", table.Len())
	}
	if _, err := table.Record(2); err == nil {
		t.Error("Expected incomplete record to be rejected")
	}
	rec, err := table.RecordMap(1)
	if err != nil {
		t.Fatalf("RecordMap failed: %v", err)
	}
	if !rec["a"].Equal(Int(3)) || !rec["b"].Equal(Int(4)) {
		t.Errorf("Unexpected record %v", rec)
	}

	if err := NewTable(nil).Append(Int(1)); err == nil {
		t.Error("Expected append without ttype to fail")
	}
	if err := NewTable(MustTType("Empty")).Append(Int(1)); err == nil {
		t.Error("Expected append to a fieldless ttype to fail")
	}
}

func TestTable_IndexRebuild(t *testing.T) {
	tt := MustTType("Pair", Field{Name: "a"}, Field{Name: "b"})
	table := NewTable(tt)
	table.AppendRecord(Int(1), Int(2))

	if v, _ := table.Get(0, "b"); !v.Equal(Int(2)) {
		t.Fatalf("Expected 2, got %s", v)
	}
	if err := tt.RenameField("b", "second"); err != nil {
		t.Fatalf("RenameField failed: %v", err)
	}
	if _, err := table.Get(0, "b"); err == nil {
		t.Error("Expected old field name to be gone")
	}
	if v, err := table.Get(0, "second"); err != nil || !v.Equal(Int(2)) {
		t.Errorf("Expected renamed field, got %v %v", v, err)
	}

	other := MustTType("Swapped", Field{Name: "b"}, Field{Name: "a"})
	table.SetTType(other)
	if v, _ := table.Get(0, "a"); !v.Equal(Int(2)) {
		t.Errorf("Expected index to follow the new ttype, got %s", v)
	}
}

func TestTType_Validation(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		ok     bool
	}{
		{"Point", []Field{{Name: "x", VType: "int"}}, true},
		{"Point", []Field{{Name: "date", VType: "date"}}, true},
		{"Point", []Field{{Name: "_x", VType: "any"}}, true},
		{"Point", []Field{{Name: "p", VType: "Other"}}, true},
		{"point", nil, false},
		{"Point", []Field{{Name: "1x"}}, false},
		{"Point", []Field{{Name: "x", VType: "list"}}, false},
		{"Point", []Field{{Name: "x"}, {Name: "x"}}, false},
		{"Po-int", nil, false},
	}

	for _, tt := range tests {
		_, err := NewTType(tt.name, tt.fields...)
		if (err == nil) != tt.ok {
			t.Errorf("NewTType(%q, %v): ok=%v, err=%v", tt.name, tt.fields, tt.ok, err)
		}
	}
}

func TestTType_String(t *testing.T) {
	tt := MustTType("Point", Field{Name: "x", VType: "int"}, Field{Name: "label"})
	if got := tt.String(); got != "= Point x:int label" {
		t.Errorf("Unexpected definition %q", got)
	}
}
