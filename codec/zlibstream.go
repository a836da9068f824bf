package codec

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// CompressorStream is a persistent raw-DEFLATE compressor. Unlike a one-shot
// zlib.Writer, a CompressorStream keeps its sliding window alive across
// calls to Compress and flushes with Z_SYNC_FLUSH semantics (flate.Writer's
// Flush does exactly this: it emits a partial block so the receiver can
// decode everything written so far without waiting for Close). One instance
// belongs to a single connection and is only ever touched from the
// connection's single write path.
type CompressorStream struct {
	buf *bytes.Buffer
	w   *flate.Writer
}

// NewCompressorStream constructs a compressor with its own sliding window.
func NewCompressorStream() *CompressorStream {
	buf := new(bytes.Buffer)
	w, err := flate.NewWriter(buf, flate.DefaultCompression)
	if err != nil {
		// flate.NewWriter only errors on an invalid level constant.
		panic(fmt.Sprintf("codec: flate.NewWriter: %v", err))
	}
	return &CompressorStream{buf: buf, w: w}
}

// Compress appends plain to the stream's window and returns the compressed
// bytes produced by a SYNC_FLUSH, suitable for immediate transmission.
func (c *CompressorStream) Compress(plain []byte) ([]byte, error) {
	c.buf.Reset()
	if _, err := c.w.Write(plain); err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return nil, fmt.Errorf("codec: compress flush: %w", err)
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	return out, nil
}

// pipeReader lets DecompressorStream feed bytes to flate.NewReader on
// demand: each call to Decompress appends the new compressed chunk and the
// flate reader consumes it from this cursor; the decoding window is carried
// across calls by DecompressorStream itself.
type pipeReader struct {
	chunks [][]byte
}

func (p *pipeReader) push(b []byte) { p.chunks = append(p.chunks, b) }

func (p *pipeReader) Read(out []byte) (int, error) {
	for len(p.chunks) > 0 && len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
	}
	if len(p.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(out, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	return n, nil
}

// DecompressorStream is a persistent raw-DEFLATE decompressor mirroring
// CompressorStream. It fails the session (returns an error rather than
// panicking) on stream corruption; the caller is expected to abort the
// connection on any error from Decompress.
type DecompressorStream struct {
	src    *pipeReader
	r      io.ReadCloser
	window []byte
}

// NewDecompressorStream constructs a decompressor with its own window.
func NewDecompressorStream() *DecompressorStream {
	src := &pipeReader{}
	return &DecompressorStream{
		src: src,
		r:   flate.NewReader(src),
	}
}

// Decompress feeds the next compressed chunk (ending on a SYNC_FLUSH
// boundary) into the stream and returns exactly the plaintext bytes it
// yields, preserving decompressor state across calls. Since a chunk ends at
// a SYNC_FLUSH marker rather than a known plaintext length, this drains the
// flate reader until it has no more output to give for the bytes supplied
// (io.EOF / io.ErrUnexpectedEOF signal "nothing more right now", not
// corruption) and hands back everything decoded. Because flate's reader
// keeps an error once it has returned one, each call restarts the reader
// with the last 32 KiB of plaintext as its preset dictionary.
func (d *DecompressorStream) Decompress(compressed []byte) ([]byte, error) {
	d.src.push(compressed)
	if err := d.r.(flate.Resetter).Reset(d.src, d.window); err != nil {
		return nil, fmt.Errorf("codec: decompress: %w", err)
	}

	var out bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := d.r.Read(chunk)
		if n > 0 {
			out.Write(chunk[:n])
		}
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("codec: decompress: %w", err)
		}
		if err != nil || n == 0 {
			break
		}
	}
	d.window = append(d.window, out.Bytes()...)
	if len(d.window) > 32<<10 {
		d.window = d.window[len(d.window)-32<<10:]
	}
	return out.Bytes(), nil
}
