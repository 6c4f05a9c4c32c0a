package uxfio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/Neumenon/uxf/uxf"
)

// DefaultMaxSize is the default limit on decompressed text (256 MiB).
const DefaultMaxSize = 256 << 20

var (
	// ErrTooLarge is returned when the decompressed text exceeds the
	// reader's size limit.
	ErrTooLarge = errors.New("uxfio: text exceeds size limit")

	// ErrInvalidUTF8 is returned when the text is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("uxfio: text is not valid UTF-8")
)

var (
	gzipMagic = []byte{0x1F, 0x8B}
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// Reader reads UXF text from a plain, gzip or xz stream. The format is
// detected from the first bytes of the stream.
type Reader struct {
	r           io.Reader
	closer      io.Closer
	compression Compression
	maxSize     int64
	parse       uxf.ParseOptions
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxSize sets the maximum decompressed text size (default: 256 MiB).
func WithMaxSize(max int64) ReaderOption {
	return func(r *Reader) {
		r.maxSize = max
	}
}

// WithParseOptions sets the options Load parses with.
func WithParseOptions(opts uxf.ParseOptions) ReaderOption {
	return func(r *Reader) {
		r.parse = opts
	}
}

// NewReader detects the compression of r and returns a Reader of its text.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	reader := &Reader{
		maxSize: DefaultMaxSize,
		parse:   uxf.DefaultParseOptions(),
	}
	for _, opt := range opts {
		opt(reader)
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("uxfio: read magic: %w", err)
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("uxfio: open gzip: %w", err)
		}
		reader.r, reader.closer, reader.compression = zr, zr, Gzip
	case bytes.HasPrefix(magic, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("uxfio: open xz: %w", err)
		}
		reader.r, reader.compression = xr, XZ
	default:
		reader.r, reader.compression = br, Plain
	}
	return reader, nil
}

// Compression returns the detected compression.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Read reads decompressed text.
func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// Close releases the decompressor. It does not close the underlying reader.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadText reads the whole text, enforcing the size limit and UTF-8
// validity. A leading byte order mark is dropped.
func (r *Reader) ReadText() (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r.r, r.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("uxfio: read: %w", err)
	}
	if n > r.maxSize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, r.maxSize)
	}
	data := bytes.TrimPrefix(buf.Bytes(), utf8BOM)
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

// Load reads the whole text and parses it.
func (r *Reader) Load() (*uxf.Uxf, error) {
	text, err := r.ReadText()
	if err != nil {
		return nil, err
	}
	return uxf.Loads(text, r.parse)
}

// ============================================================
// Files
// ============================================================

type fileReader struct {
	*Reader
	f *os.File
}

func (fr *fileReader) Close() error {
	err := fr.Reader.Close()
	if cerr := fr.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens a plain, gzip or xz UXF file for reading its text.
func Open(path string, opts ...ReaderOption) (io.ReadCloser, error) {
	fr, err := openFile(path, opts...)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

func openFile(path string, opts ...ReaderOption) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fileReader{Reader: r, f: f}, nil
}

// LoadFile reads and parses a UXF file. opts.Source defaults to path.
func LoadFile(path string, opts uxf.ParseOptions, ropts ...ReaderOption) (*uxf.Uxf, error) {
	if opts.Source == "" || opts.Source == "-" {
		opts.Source = path
	}
	fr, err := openFile(path, append(ropts, WithParseOptions(opts))...)
	if err != nil {
		return nil, err
	}
	defer fr.Close()
	return fr.Load()
}
