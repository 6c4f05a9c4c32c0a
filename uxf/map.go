package uxf

import (
	"fmt"
	"strconv"
	"time"
)

// MapEntry represents a key-value pair in a map.
type MapEntry struct {
	Key   *Value
	Value *Value
}

// Map is an insertion-ordered mapping with unique keys. Keys must be int,
// date, datetime, str or bytes values.
//
// UXF text cannot declare a vtype without a ktype, so a Map with only
// VType set is written with the kind of its first key (str when empty) as
// KType and reads back with that KType.
type Map struct {
	Comment string
	KType   string
	VType   string

	entries []MapEntry
	index   map[mapKey]int
}

// mapKey identifies a key independently of its *Value identity.
type mapKey struct {
	kind Kind
	repr string
}

func keyOf(k *Value) mapKey {
	switch k.Kind() {
	case KindInt:
		return mapKey{KindInt, strconv.FormatInt(k.intVal, 10)}
	case KindDate:
		return mapKey{KindDate, k.timeVal.Format("2006-01-02")}
	case KindDateTime:
		return mapKey{KindDateTime, k.timeVal.UTC().Format(time.RFC3339Nano)}
	case KindStr:
		return mapKey{KindStr, k.strVal}
	case KindBytes:
		return mapKey{KindBytes, string(k.bytesVal)}
	}
	return mapKey{kind: k.Kind()}
}

// NewMap creates a map with optional declared key and value types.
func NewMap(ktype, vtype string) *Map {
	return &Map{KType: ktype, VType: vtype, index: make(map[mapKey]int)}
}

// Set stores value under key. An existing key keeps its position.
func (m *Map) Set(key, value *Value) error {
	if !key.Kind().IsKey() {
		return fmt.Errorf("uxf: map keys may only be int, date, datetime, str, or bytes, got %s", key.Kind())
	}
	if value == nil {
		value = Null()
	}
	if m.index == nil {
		m.index = make(map[mapKey]int)
	}
	k := keyOf(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].Value = value
		return nil
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
	return nil
}

// Get returns the value stored under key.
func (m *Map) Get(key *Value) (*Value, bool) {
	if m == nil || !key.Kind().IsKey() {
		return nil, false
	}
	i, ok := m.index[keyOf(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// GetStr is a convenience for Get(Str(key)).
func (m *Map) GetStr(key string) (*Value, bool) {
	return m.Get(Str(key))
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in insertion order. The slice must not be
// modified.
func (m *Map) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []*Value {
	keys := make([]*Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// replaceEntries swaps in a new entry sequence, keeping the last value of
// any key that now occurs twice.
func (m *Map) replaceEntries(entries []MapEntry) {
	m.entries = nil
	m.index = make(map[mapKey]int, len(entries))
	for _, e := range entries {
		// Keys were validated by the caller.
		_ = m.Set(e.Key, e.Value)
	}
}

// Equal reports whether two maps hold equal entries in the same order.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Comment != o.Comment || m.KType != o.KType || m.VType != o.VType ||
		len(m.entries) != len(o.entries) {
		return false
	}
	for i := range m.entries {
		if !m.entries[i].Key.Equal(o.entries[i].Key) ||
			!m.entries[i].Value.Equal(o.entries[i].Value) {
			return false
		}
	}
	return true
}
