// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"fmt"
	"io"
)

// byteQueue stages the body bytes of a chunk until the range decoder
// consumes them. It reports io.EOF when it runs empty.
type byteQueue struct {
	p []byte
	r int
}

func (q *byteQueue) reset() {
	q.p = q.p[:0]
	q.r = 0
}

// write appends p to the queue. Read data is compacted away first, so
// the queue never holds more than one chunk body plus the new slice.
func (q *byteQueue) write(p []byte) {
	if q.r > 0 {
		n := copy(q.p, q.p[q.r:])
		q.p = q.p[:n]
		q.r = 0
	}
	q.p = append(q.p, p...)
}

func (q *byteQueue) len() int {
	return len(q.p) - q.r
}

func (q *byteQueue) ReadByte() (c byte, err error) {
	if q.r >= len(q.p) {
		return 0, io.EOF
	}
	c = q.p[q.r]
	q.r++
	return c, nil
}

// rangeDecoder decodes single bits of the range encoding stream.
type rangeDecoder struct {
	br     *byteQueue
	nrange uint32
	code   uint32
}

// init initializes the rangeDecoder. It reads five bytes from the queue
// and may return errors.
func (d *rangeDecoder) init(br *byteQueue) error {
	*d = rangeDecoder{br: br, nrange: 0xffffffff}

	b, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	if b != 0 {
		return fmt.Errorf(
			"lzma2: first byte of chunk body not zero: %w", ErrData)
	}
	for i := 0; i < 4; i++ {
		if err = d.updateCode(); err != nil {
			return err
		}
	}
	if d.code >= d.nrange {
		return fmt.Errorf("lzma2: d.code >= d.nrange: %w", ErrData)
	}
	return nil
}

// possiblyAtEnd checks whether the decoder may be at the end of the
// stream.
func (d *rangeDecoder) possiblyAtEnd() bool {
	return d.code == 0
}

// directDecodeBit decodes a bit with probability 1/2. The return value
// b will contain the bit at the least-significant position. All other
// bits will be zero.
func (d *rangeDecoder) directDecodeBit() (b uint32, err error) {
	d.nrange >>= 1
	d.code -= d.nrange
	t := 0 - (d.code >> 31)
	d.code += d.nrange & t
	b = (t + 1) & 1

	// d.code will stay less than d.nrange

	// normalize
	// assume d.code < d.nrange
	const top = 1 << 24
	if d.nrange >= top {
		return b, nil
	}
	d.nrange <<= 8
	// d.code < d.nrange will be maintained
	return b, d.updateCode()
}

// decodeBit decodes a single bit. The bit will be returned at the
// least-significant position. All other bits will be zero. The
// probability value will be updated.
func (d *rangeDecoder) decodeBit(p *prob) (b uint32, err error) {
	bound := p.bound(d.nrange)
	if d.code < bound {
		d.nrange = bound
		p.inc()
		b = 0
	} else {
		d.code -= bound
		d.nrange -= bound
		p.dec()
		b = 1
	}
	// normalize
	// assume d.code < d.nrange
	const top = 1 << 24
	if d.nrange >= top {
		return b, nil
	}
	d.nrange <<= 8
	// d.code < d.nrange will be maintained
	return b, d.updateCode()
}

// updateCode reads a new byte into the code.
func (d *rangeDecoder) updateCode() error {
	b, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	d.code = (d.code << 8) | uint32(b)
	return nil
}
