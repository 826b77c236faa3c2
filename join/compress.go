package join

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/biodump/seqdump/dumperror"
)

// Compressor wraps an output writer with an optional compression layer.
// The temp registry's final concatenation step (C12) is the only thing
// that ever needs one, and spec.md section 1 lists "compression
// back-ends" as an external collaborator behind a stated interface; this
// is that interface, kept narrow on purpose.
type Compressor interface {
	// Wrap returns a WriteCloser that compresses into w. Closing it must
	// flush and finalize the stream without closing w itself.
	Wrap(w io.Writer) (io.WriteCloser, error)
	// Extension returns the suffix (e.g. ".gz") final output paths should
	// carry when this compressor is in use.
	Extension() string
}

// NoCompression is the identity Compressor: final output is written
// uncompressed, the same result as a nil Compressor (which is what the
// CLI passes under --stdout; spec.md section 6: "stdout disables
// overwrite, compression, append").
type NoCompression struct{}

func (NoCompression) Wrap(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }
func (NoCompression) Extension() string                       { return "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// GzipCompression is the one concrete compression backend wired into
// this repo, backed by klauspost/compress's gzip implementation (the
// domain-stack pick for the "optional compression back-ends" collaborator;
// see DESIGN.md).
type GzipCompression struct {
	// Level is a gzip compression level (gzip.DefaultCompression if zero).
	Level int
}

func (c GzipCompression) Wrap(w io.Writer) (io.WriteCloser, error) {
	level := c.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, dumperror.New(dumperror.IoFailure, "join.GzipCompression.Wrap", err)
	}
	return gw, nil
}

func (GzipCompression) Extension() string { return ".gz" }
