package uxfio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Neumenon/uxf/uxf"
)

const sample = "uxf 1.0 sample\n= Point x:int y:int\n{<origin> (Point 0 0) <name> <café>}\n"

func sampleDoc(t *testing.T) *uxf.Uxf {
	t.Helper()
	doc, err := uxf.Loads(sample, uxf.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Loads failed: %v", err)
	}
	return doc
}

// ============================================================
// Writer Tests
// ============================================================

func TestCompressionFor(t *testing.T) {
	tests := map[string]Compression{
		"data.uxf":    Plain,
		"data.uxf.gz": Gzip,
		"DATA.UXF.GZ": Gzip,
		"data.uxf.xz": XZ,
		"data":        Plain,
		"-":           Plain,
	}
	for path, want := range tests {
		if got := CompressionFor(path); got != want {
			t.Errorf("CompressionFor(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestWriter_Plain(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Plain)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Dump(sampleDoc(t), uxf.DefaultEmitOptions()); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "uxf 1.0 sample\n") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

// ============================================================
// Reader Tests
// ============================================================

func TestReader_Detection(t *testing.T) {
	for _, c := range []Compression{Plain, Gzip, XZ} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, c)
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}
			if _, err := io.WriteString(w, sample); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			r, err := NewReader(&buf)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			defer r.Close()
			if r.Compression() != c {
				t.Errorf("Expected %s, detected %s", c, r.Compression())
			}
			text, err := r.ReadText()
			if err != nil {
				t.Fatalf("ReadText failed: %v", err)
			}
			if text != sample {
				t.Errorf("got:\n%s\nwant:\n%s", text, sample)
			}
		})
	}
}

func TestReader_ShortInput(t *testing.T) {
	r, err := NewReader(strings.NewReader("uxf"))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	text, err := r.ReadText()
	if err != nil || text != "uxf" {
		t.Errorf("Expected short plain text, got %q %v", text, err)
	}
}

func TestReader_MaxSize(t *testing.T) {
	r, err := NewReader(strings.NewReader(sample), WithMaxSize(10))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if _, err := r.ReadText(); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	r, _ = NewReader(strings.NewReader(sample), WithMaxSize(int64(len(sample))))
	if _, err := r.ReadText(); err != nil {
		t.Errorf("Expected text at the limit to be accepted, got %v", err)
	}
}

func TestReader_InvalidUTF8(t *testing.T) {
	r, _ := NewReader(bytes.NewReader([]byte("uxf 1.0\n[<\xff>]")))
	if _, err := r.ReadText(); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestReader_BOM(t *testing.T) {
	r, _ := NewReader(strings.NewReader("\xEF\xBB\xBFuxf 1.0\n[]"))
	doc, err := r.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Data.Kind() != uxf.KindList {
		t.Errorf("Expected list, got %s", doc.Data.Kind())
	}
}

func TestReader_BadGzip(t *testing.T) {
	if _, err := NewReader(bytes.NewReader([]byte{0x1F, 0x8B, 0x00})); err == nil {
		t.Error("Expected truncated gzip header to fail")
	}
}

// ============================================================
// File Tests
// ============================================================

func TestFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDoc(t)
	want, _ := uxf.Dumps(doc, uxf.DefaultEmitOptions())

	for _, name := range []string{"plain.uxf", "packed.uxf.gz", "packed.uxf.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := DumpFile(path, doc, uxf.DefaultEmitOptions()); err != nil {
				t.Fatalf("DumpFile failed: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if (string(raw) == want) != (CompressionFor(name) == Plain) {
				t.Errorf("Unexpected file contents for %s", name)
			}

			back, err := LoadFile(path, uxf.DefaultParseOptions())
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if !back.Data.Equal(doc.Data) || back.Custom != doc.Custom {
				t.Error("round trip changed the document")
			}
		})
	}
}

func TestFile_SuffixIgnoredOnRead(t *testing.T) {
	// Compressed content is detected even without a matching suffix.
	dir := t.TempDir()
	gz := filepath.Join(dir, "data.uxf.gz")
	if err := DumpFile(gz, sampleDoc(t), uxf.DefaultEmitOptions()); err != nil {
		t.Fatalf("DumpFile failed: %v", err)
	}
	renamed := filepath.Join(dir, "data.uxf")
	if err := os.Rename(gz, renamed); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	rc, err := Open(renamed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "uxf 1.0 sample\n") {
		t.Errorf("Unexpected text %q", data)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.uxf"), uxf.DefaultParseOptions()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}

	path := filepath.Join(dir, "bad.uxf")
	if err := os.WriteFile(path, []byte("uxf 1.0\n[1"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	_, err := LoadFile(path, uxf.DefaultParseOptions())
	var uerr *uxf.Error
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected *uxf.Error, got %v", err)
	}
	if uerr.Source != path {
		t.Errorf("Expected source %s, got %s", path, uerr.Source)
	}
}
