// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"fmt"
	"io"
)

// DecoderConfig provides the parameters for an LZMA2 decoder.
type DecoderConfig struct {
	// DictSize provides the maximum dictionary size supported.
	DictSize int
}

// ApplyDefaults sets a default value for the dictionary size.
func (cfg *DecoderConfig) ApplyDefaults() {
	if cfg.DictSize == 0 {
		cfg.DictSize = 8 << 20
	}
}

// Verify checks the validity of the dictionary size.
func (cfg *DecoderConfig) Verify() error {
	if cfg.DictSize < minDictSize {
		return fmt.Errorf(
			"lzma2: dictionary size must be larger or equal"+
				" %d bytes: %w", minDictSize, ErrOptions)
	}
	if int64(cfg.DictSize) > maxDictSize {
		return fmt.Errorf(
			"lzma2: dictionary size must be less or equal"+
				" %d bytes: %w", int64(maxDictSize), ErrOptions)
	}
	return nil
}

// Decoder decompresses an LZMA2 chunk stream. Compressed data is
// pushed in with Write and decompressed data is drained with Read.
// Write accepts arbitrary slices of the stream; the decoder keeps all
// progress between calls.
type Decoder struct {
	chunkDecoder
	err error
}

// NewDecoder creates a decoder using the configuration parameter
// attributes.
func NewDecoder(cfg DecoderConfig) (d *Decoder, err error) {
	cfg.ApplyDefaults()
	if err = cfg.Verify(); err != nil {
		return nil, err
	}
	d = new(Decoder)
	if err = d.chunkDecoder.init(new(lzmaDecoder), cfg.DictSize); err != nil {
		return nil, err
	}
	return d, nil
}

// Write pushes compressed bytes into the decoder. If the internal
// buffer runs full Write returns ErrFullBuffer together with the
// number of bytes consumed; the caller must drain data with Read and
// submit the remaining input again. After the end-of-stream marker has
// been consumed Write returns io.EOF. All other errors are sticky.
func (d *Decoder) Write(p []byte) (n int, err error) {
	if d.err != nil {
		return 0, d.err
	}
	n, err = d.step(p)
	if err != nil && err != ErrFullBuffer {
		d.err = err
	}
	return n, err
}

// Read provides the decompressed data. When no data is buffered Read
// returns 0, nil if the decoder requires more compressed input, io.EOF
// after the end of the stream has been reached and the sticky error if
// decoding failed.
func (d *Decoder) Read(p []byte) (n int, err error) {
	n, _ = d.buf.Read(p)
	if n > 0 || len(p) == 0 {
		return n, nil
	}
	if d.err != nil {
		return 0, d.err
	}
	return 0, nil
}

// WriteTo drains all buffered decompressed data into w.
func (d *Decoder) WriteTo(w io.Writer) (n int64, err error) {
	return d.buf.WriteTo(w)
}

// Reset prepares the decoder for a new stream. The allocated buffers
// are reused.
func (d *Decoder) Reset() {
	d.chunkDecoder.reset()
	d.err = nil
}

// Props returns the properties installed by the last chunk header
// carrying a properties byte.
func (d *Decoder) Props() Properties { return d.props }

// MemUsage returns an estimate of the memory consumed by the decoder
// in bytes.
func (d *Decoder) MemUsage() uint64 {
	return 1<<10 + uint64(d.bufSize) + d.c.memusage()
}
