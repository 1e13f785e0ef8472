// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"fmt"
	"io"

	"github.com/ulikunitz/lz"
)

// chunkSeq enumerates the positions of the chunk framing state machine
// between two step calls.
type chunkSeq byte

const (
	seqControl chunkSeq = iota
	seqUncompressed1
	seqUncompressed2
	seqCompressed0
	seqCompressed1
	seqProperties
	seqLZMA
	seqCopy
)

// minDictSize defines the minimum supported dictionary size.
const minDictSize = 1 << 12

// chunkDecoder decodes a sequence of chunks into the dictionary
// buffer. The step method consumes compressed input in arbitrary
// slices and can be re-invoked after every return; all progress lives
// in the struct.
type chunkDecoder struct {
	buf lz.DecoderBuffer
	c   codec

	seq     chunkSeq
	nextSeq chunkSeq

	// sizes of the current chunk; compressedLen counts down while
	// the body is consumed and holds the size field of raw chunks
	uncompressedLen int
	compressedLen   int

	needProps     bool
	needDictReset bool

	props Properties
	// position in the uncompressed stream since the last dictionary
	// reset
	pos int64

	bodyStarted bool
	ended       bool

	bufSize int
}

// init sets up the chunk decoder with the given body codec. The buffer
// is sized so that a fully drained buffer always has room for a whole
// chunk on top of the dictionary window.
func (d *chunkDecoder) init(c codec, dictSize int) error {
	*d = chunkDecoder{c: c}
	dc := lz.DecoderConfig{
		WindowSize: dictSize,
		BufferSize: 2 * dictSize,
	}
	if dc.BufferSize < maxUncompressedChunkSize+dictSize {
		dc.BufferSize = maxUncompressedChunkSize + dictSize
	}
	if err := d.buf.Init(dc); err != nil {
		return err
	}
	d.bufSize = dc.BufferSize
	d.reset()
	return nil
}

// reset prepares the decoder for a new stream reusing the allocated
// buffer. The first chunk must reset the dictionary and, if
// compressed, provide properties.
func (d *chunkDecoder) reset() {
	d.buf.Reset()
	d.seq = seqControl
	d.nextSeq = seqControl
	d.needProps = true
	d.needDictReset = true
	d.pos = 0
	d.bodyStarted = false
	d.ended = false
}

// unread returns the number of decompressed bytes that have not been
// read from the buffer yet.
func (d *chunkDecoder) unread() int {
	return len(d.buf.Data) - d.buf.R
}

// step consumes bytes from p and decodes them. It returns the number
// of bytes consumed. A nil error with n == len(p) means more input is
// required. ErrFullBuffer reports that decompressed data must be read
// before the decoder can proceed; no input is lost in that case.
// io.EOF reports that the end-of-stream marker has been consumed.
func (d *chunkDecoder) step(p []byte) (n int, err error) {
	if d.ended {
		return 0, io.EOF
	}
	// The chunk body handler can make progress without new input,
	// all other states require at least one byte.
	for n < len(p) || d.seq == seqLZMA {
		switch d.seq {
		case seqControl:
			c := control(p[n])
			if c.resetDict() && d.unread() > 0 {
				// The buffer must be drained before the
				// dictionary can be thrown away.
				return n, ErrFullBuffer
			}
			n++
			if c.packed() {
				d.uncompressedLen = c.sizeHighBits()
				d.seq = seqUncompressed1
				switch c.resetLevel() {
				case 3:
					d.buf.Reset()
					d.pos = 0
					d.needDictReset = false
					fallthrough
				case 2:
					if d.needDictReset {
						return n, fmt.Errorf(
							"lzma2: chunk requires"+
								" dictionary reset: %w",
							ErrData)
					}
					d.needProps = false
					d.nextSeq = seqProperties
				case 1:
					if d.needProps {
						return n, fmt.Errorf(
							"lzma2: chunk requires"+
								" properties: %w",
							ErrData)
					}
					d.c.resetState()
					d.nextSeq = seqLZMA
				case 0:
					if d.needProps {
						return n, fmt.Errorf(
							"lzma2: chunk requires"+
								" properties: %w",
							ErrData)
					}
					d.nextSeq = seqLZMA
				}
				break
			}
			switch c {
			case eosCtrl:
				d.ended = true
				return n, io.EOF
			case copyResetDictCtrl:
				d.buf.Reset()
				d.pos = 0
				d.needDictReset = false
				fallthrough
			case copyCtrl:
				if d.needDictReset {
					return n, fmt.Errorf(
						"lzma2: chunk requires"+
							" dictionary reset: %w",
						ErrData)
				}
				d.seq = seqCompressed0
				d.nextSeq = seqCopy
			default:
				return n, fmt.Errorf(
					"lzma2: invalid chunk control"+
						" byte %#02x: %w",
					byte(c), ErrData)
			}

		case seqUncompressed1:
			d.uncompressedLen += int(p[n]) << 8
			n++
			d.seq = seqUncompressed2

		case seqUncompressed2:
			d.uncompressedLen += int(p[n]) + 1
			n++
			d.seq = seqCompressed0
			d.c.expect(d.uncompressedLen, d.pos)

		case seqCompressed0:
			d.compressedLen = int(p[n]) << 8
			n++
			d.seq = seqCompressed1

		case seqCompressed1:
			d.compressedLen += int(p[n]) + 1
			n++
			d.seq = d.nextSeq
			d.bodyStarted = false

		case seqProperties:
			if err = d.props.fromByte(p[n]); err != nil {
				return n, err
			}
			n++
			d.c.reset(d.props)
			d.seq = seqLZMA

		case seqLZMA:
			if !d.bodyStarted {
				if d.unread() > 0 {
					// Drain first, so the whole chunk is
					// guaranteed to fit into the buffer.
					return n, ErrFullBuffer
				}
				d.bodyStarted = true
			}
			k := d.compressedLen
			if k > len(p)-n {
				k = len(p) - n
			}
			m, err := d.c.decode(&d.buf, p[n:n+k])
			if m < 0 || m > k {
				return n, fmt.Errorf(
					"lzma2: decoder consumed more input"+
						" than offered: %w", ErrData)
			}
			n += m
			d.compressedLen -= m
			if err != nil {
				return n, err
			}
			if d.compressedLen > 0 {
				if n < len(p) {
					return n, fmt.Errorf(
						"lzma2: decoder stalled on"+
							" chunk body: %w", ErrData)
				}
				return n, nil
			}
			// The full body has been delivered; decode the tail
			// and verify the chunk.
			if err = d.c.finish(&d.buf); err != nil {
				return n, err
			}
			d.pos += int64(d.uncompressedLen)
			d.bodyStarted = false
			d.seq = seqControl

		case seqCopy:
			k := d.compressedLen
			if k > len(p)-n {
				k = len(p) - n
			}
			m, err := d.buf.Write(p[n : n+k])
			n += m
			d.compressedLen -= m
			d.pos += int64(m)
			if err != nil {
				return n, err
			}
			if d.compressedLen > 0 {
				return n, nil
			}
			d.seq = seqControl

		default:
			return n, ErrProg
		}
	}
	return n, nil
}
