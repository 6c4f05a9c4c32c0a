// Package uxf implements UXF, a plain-text, typed, human-readable
// structured data interchange format.
//
// UXF is designed to be:
//   - Human readable and writable
//   - Optionally typed (list, map and field value types)
//   - Self-describing (named, reusable table schemas)
//   - Commentable (every collection may carry a comment)
//   - Round-trippable (written output re-parses to an equal document)
//
// # Data Model
//
// Scalars: null, bool, int, real, date, datetime, str, bytes
// Collections: list, map, table (records of a named ttype)
//
// # Syntax
//
// A file starts with a header line, followed by optional ttype
// definitions and exactly one top-level collection:
//
//	uxf 1.0 optional custom text
//	= Point x:int y:int
//	{#<a comment> str list
//	  <points> [(Point 1 2 3 4)]
//	  <names> [str <Alice> <Bob>]
//	}
//
// Null:     ?
// Bool:     yes / no (true / false are also accepted)
// Int:      123, -456
// Real:     1.5, -2e10
// Date:     2022-01-13
// DateTime: 2022-01-13T10:30:00, 2022-01-13T10:30:00+01:00
// Str:      <text with &amp; &lt; &gt; escapes>
// Bytes:    (:DEADBEEF:)
// List:     [vtype v1 v2 ...]
// Map:      {ktype vtype k1 v1 k2 v2 ...}
// Table:    (TTypeName v1 v2 ...) values fill records field by field
//
// # Type Checking
//
// Declared types are advisory. With ParseOptions.Check each closed
// collection is checked against its declared types; with
// ParseOptions.FixTypes mismatching values are coerced where possible.
// Mismatches are reported as warnings through ParseOptions.OnWarning, or
// returned as errors with ParseOptions.WarnIsError.
package uxf
