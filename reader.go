// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import "io"

// NewReader creates a reader decompressing an LZMA2 chunk stream read
// from z. It is not an error if z doesn't stop at the end of the
// stream; the reader stops consuming input after the end-of-stream
// marker.
func NewReader(z io.Reader, dictSize int) (r io.Reader, err error) {
	return NewReaderConfig(z, DecoderConfig{DictSize: dictSize})
}

// NewReaderProps creates a reader using the properties payload of an
// LZMA2 filter, a single byte holding the dictionary size code.
func NewReaderProps(z io.Reader, props []byte) (r io.Reader, err error) {
	cfg, err := ParseProps(props)
	if err != nil {
		return nil, err
	}
	return NewReaderConfig(z, cfg)
}

// NewReaderConfig creates a reader using the configuration parameter
// attributes.
func NewReaderConfig(z io.Reader, cfg DecoderConfig) (r io.Reader, err error) {
	d, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	return &reader{d: d, z: z}, nil
}

// reader drives a Decoder with data from an underlying reader.
type reader struct {
	d   *Decoder
	z   io.Reader
	in  []byte
	a   [4096]byte
	err error
}

func (r *reader) Read(p []byte) (n int, err error) {
	for {
		k, derr := r.d.Read(p[n:])
		n += k
		if derr == io.EOF {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		if n == len(p) {
			return n, nil
		}
		if r.err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, r.err
		}
		if len(r.in) == 0 {
			m, zerr := r.z.Read(r.a[:])
			r.in = r.a[:m]
			if zerr != nil {
				if zerr == io.EOF {
					// The decoder didn't report the end of
					// the stream, so it is truncated.
					zerr = io.ErrUnexpectedEOF
				}
				r.err = zerr
			}
			if m == 0 {
				continue
			}
		}
		m, werr := r.d.Write(r.in)
		r.in = r.in[m:]
		switch werr {
		case nil, ErrFullBuffer, io.EOF:
		default:
			r.err = werr
		}
	}
}
