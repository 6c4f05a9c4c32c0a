package uxfio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/Neumenon/uxf/uxf"
)

// Compression is the container format of a UXF stream.
type Compression uint8

const (
	Plain Compression = iota
	Gzip
	XZ
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	case XZ:
		return "xz"
	default:
		return "unknown"
	}
}

// CompressionFor selects the compression for a file name: .gz is gzip,
// .xz is xz, anything else is plain text.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".xz":
		return XZ
	default:
		return Plain
	}
}

// Writer writes UXF text, compressing it if requested.
type Writer struct {
	w      io.Writer
	closer io.Closer
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	gzipLevel int
}

// WithGzipLevel sets the gzip compression level (default: gzip.DefaultCompression).
func WithGzipLevel(level int) WriterOption {
	return func(c *writerConfig) {
		c.gzipLevel = level
	}
}

// NewWriter creates a Writer that compresses into w.
func NewWriter(w io.Writer, c Compression, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{gzipLevel: gzip.DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch c {
	case Plain:
		return &Writer{w: w}, nil
	case Gzip:
		zw, err := gzip.NewWriterLevel(w, cfg.gzipLevel)
		if err != nil {
			return nil, fmt.Errorf("uxfio: open gzip: %w", err)
		}
		return &Writer{w: zw, closer: zw}, nil
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("uxfio: open xz: %w", err)
		}
		return &Writer{w: xw, closer: xw}, nil
	}
	return nil, fmt.Errorf("uxfio: unknown compression %d", c)
}

// Write writes uncompressed text.
func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// Dump writes data as UXF text.
func (w *Writer) Dump(data any, opts uxf.EmitOptions) error {
	return uxf.Dump(w.w, data, opts)
}

// Close flushes the compressor. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// ============================================================
// Files
// ============================================================

type fileWriter struct {
	*Writer
	f *os.File
}

func (fw *fileWriter) Close() error {
	err := fw.Writer.Close()
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create creates a UXF file, compressed according to CompressionFor(path).
func Create(path string, opts ...WriterOption) (io.WriteCloser, error) {
	return createFile(path, opts...)
}

func createFile(path string, opts ...WriterOption) (*fileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, CompressionFor(path), opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fileWriter{Writer: w, f: f}, nil
}

// DumpFile writes data to a UXF file, compressed according to its suffix.
func DumpFile(path string, data any, opts uxf.EmitOptions, wopts ...WriterOption) error {
	fw, err := createFile(path, wopts...)
	if err != nil {
		return err
	}
	if err := fw.Dump(data, opts); err != nil {
		fw.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return fw.Close()
}
