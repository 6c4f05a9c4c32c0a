package uxf

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestToAny(t *testing.T) {
	doc := mustLoad(t, `uxf 1.0
= P name age:int
{<people> (P <Ann> 40 <Bob> ?) 3 [yes 2.5 (:FF:)] <when> 2022-01-13}`)
	got := ToAny(doc.Data)
	want := map[string]any{
		"people": []map[string]any{
			{"name": "Ann", "age": int64(40)},
			{"name": "Bob", "age": nil},
		},
		"3":    []any{true, 2.5, []byte{0xFF}},
		"when": time.Date(2022, 1, 13, 0, 0, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToAny mismatch\n  got:  %#v\n  want: %#v", got, want)
	}
}

func TestToJSON(t *testing.T) {
	doc := mustLoad(t, "uxf 1.0\n[2022-01-13 2022-01-13T10:30:00 (:4869:) <x>]")
	data, err := ToJSON(doc.Data)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	want := `["2022-01-13","2022-01-13T10:30:00","SGk=","x"]`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestFromJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"b": [1, 2.5, true, null], "a": "x"}`))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	got := mustDump(t, v, DefaultEmitOptions())
	want := "uxf 1.0\n{\n  <a> <x>\n  <b> [1 2.5 yes ?]\n}\n"
	if got != want {
		t.Errorf("output mismatch\n  got:      %q\n  expected: %q", got, want)
	}

	if _, err := FromJSON([]byte(`{`)); err == nil {
		t.Error("Expected invalid JSON to fail")
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	input := `{"list":[1,2,3],"nested":{"k":"v"},"n":null,"r":0.5}`
	v, err := FromJSON([]byte(input))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	out, err := ToJSON(v)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var a, b any
	_ = json.Unmarshal([]byte(input), &a)
	_ = json.Unmarshal(out, &b)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("JSON round trip mismatch\n  in:  %s\n  out: %s", input, out)
	}
}

func TestFromAny_MapKeys(t *testing.T) {
	var diags []*Error
	opts := DefaultEmitOptions()
	opts.OnDiagnostic = func(e *Error) { diags = append(diags, e) }

	v := FromAny(map[float64]int{1.5: 1}, opts)
	m, err := v.AsMap()
	if err != nil {
		t.Fatalf("AsMap failed: %v", err)
	}
	if m.Len() != 0 || len(diags) != 1 {
		t.Errorf("Expected the real key to be skipped with a diagnostic, got %d entries, %d diagnostics", m.Len(), len(diags))
	}
}
