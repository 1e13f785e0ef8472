// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/lz"
)

// maxSeqInBytes bounds the number of compressed bytes a single
// sequence can consume from the range decoder. A sequence decodes at
// most around 48 bits and every bit reads at most one byte during
// normalization. As long as at least this many bytes are staged the
// decoder can read a whole sequence without running dry.
const maxSeqInBytes = 64

var errEOS = errors.New("EOS marker")

// lzmaDecoder decodes the LZMA-compressed body of a chunk into the
// shared dictionary buffer. Input arrives in arbitrary slices; the
// decoder stages them in a queue and only reads a sequence when enough
// bytes are available to complete it, which keeps the decoder
// resumable at any input split.
type lzmaDecoder struct {
	state state
	rd    rangeDecoder
	q     byteQueue

	// uncompressed size of the current chunk and the bytes already
	// produced for it
	size int
	n    int
	// position of the chunk start in the uncompressed stream since
	// the last dictionary reset
	pos int64

	inited     bool
	pending    lz.Seq
	hasPending bool
}

func (d *lzmaDecoder) reset(p Properties) { d.state.init(p) }

func (d *lzmaDecoder) resetState() { d.state.reset() }

func (d *lzmaDecoder) expect(size int, pos int64) {
	d.size = size
	d.n = 0
	d.pos = pos
	d.inited = false
	d.hasPending = false
	d.q.reset()
}

func (d *lzmaDecoder) memusage() uint64 {
	n := uint64(len(d.state.litCodec.probs)) * 2
	return n + uint64(cap(d.q.p)) + 4<<10
}

// decode stages p and decodes as many sequences as the staged data
// allows. The input slice is always consumed entirely. ErrFullBuffer
// reports that the dictionary buffer must be drained before decoding
// can continue.
func (d *lzmaDecoder) decode(buf *lz.DecoderBuffer, p []byte) (n int, err error) {
	d.q.write(p)
	return len(p), d.run(buf, false)
}

// finish decodes the remainder of the chunk after the full compressed
// body has been staged and verifies that the body has been consumed
// exactly.
func (d *lzmaDecoder) finish(buf *lz.DecoderBuffer) error {
	if err := d.run(buf, true); err != nil {
		return err
	}
	if d.q.len() > 0 || !d.rd.possiblyAtEnd() {
		return fmt.Errorf(
			"lzma2: compressed chunk size doesn't match"+
				" chunk body: %w", ErrData)
	}
	return nil
}

func (d *lzmaDecoder) run(buf *lz.DecoderBuffer, final bool) error {
	if d.hasPending {
		seq := d.pending
		d.hasPending = false
		if err := d.writeSeq(buf, seq); err != nil {
			return err
		}
	}
	if !d.inited {
		if d.q.len() < 5 {
			if final {
				return fmt.Errorf(
					"lzma2: chunk body too short: %w",
					ErrData)
			}
			return nil
		}
		if err := d.rd.init(&d.q); err != nil {
			return err
		}
		d.inited = true
	}
	for d.n < d.size {
		if !final && d.q.len() < maxSeqInBytes {
			return nil
		}
		seq, err := d.readSeq(buf)
		if err != nil {
			if err == errEOS {
				return fmt.Errorf(
					"lzma2: unexpected end-of-stream"+
						" marker: %w", ErrData)
			}
			if err == io.EOF {
				return fmt.Errorf(
					"lzma2: chunk body truncated: %w",
					ErrData)
			}
			return err
		}
		if int(seq.MatchLen) > d.size-d.n {
			return fmt.Errorf(
				"lzma2: match exceeds uncompressed chunk"+
					" size: %w", ErrData)
		}
		if err = d.writeSeq(buf, seq); err != nil {
			return err
		}
	}
	return nil
}

// writeSeq writes a decoded sequence into the dictionary buffer. If the
// buffer is full the sequence is kept pending and retried on the next
// run.
func (d *lzmaDecoder) writeSeq(buf *lz.DecoderBuffer, seq lz.Seq) error {
	var err error
	if seq.MatchLen == 0 {
		if err = buf.WriteByte(byte(seq.Aux)); err == nil {
			d.n++
			return nil
		}
	} else {
		if _, err = buf.WriteMatch(seq.MatchLen, seq.Offset); err == nil {
			d.n += int(seq.MatchLen)
			return nil
		}
	}
	if err == ErrFullBuffer {
		d.pending = seq
		d.hasPending = true
		return ErrFullBuffer
	}
	return fmt.Errorf("lzma2: %s: %w", err, ErrData)
}

// byteAtEnd returns the byte at distance i from the write end of the
// buffer. It returns zero if the distance reaches in front of the
// buffer start.
func byteAtEnd(buf *lz.DecoderBuffer, i int64) byte {
	k := int64(len(buf.Data)) - i
	if k < 0 {
		return 0
	}
	return buf.Data[k]
}

func (d *lzmaDecoder) decodeLiteral(buf *lz.DecoderBuffer) (seq lz.Seq, err error) {
	litState := d.state.litState(byteAtEnd(buf, 1), d.pos+int64(d.n))
	match := byteAtEnd(buf, int64(d.state.rep[0])+1)
	s, err := d.state.litCodec.Decode(&d.rd, d.state.state, match, litState)
	if err != nil {
		return lz.Seq{}, err
	}
	return lz.Seq{LitLen: 1, Aux: uint32(s)}, nil
}

// readSeq reads a single sequence. Each sequence is either a one-byte
// literal (LitLen=1, Aux has the byte) or a match (MatchLen and Offset
// non-zero).
func (d *lzmaDecoder) readSeq(buf *lz.DecoderBuffer) (seq lz.Seq, err error) {
	const eosDist = 1<<32 - 1

	state, state2, posState := d.state.states(d.pos + int64(d.n))

	s2 := &d.state.s2[state2]
	b, err := d.rd.decodeBit(&s2.isMatch)
	if err != nil {
		return lz.Seq{}, err
	}
	if b == 0 {
		// literal
		seq, err := d.decodeLiteral(buf)
		if err != nil {
			return lz.Seq{}, err
		}
		d.state.updateStateLiteral()
		return seq, nil
	}

	s1 := &d.state.s1[state]
	b, err = d.rd.decodeBit(&s1.isRep)
	if err != nil {
		return lz.Seq{}, err
	}
	if b == 0 {
		// simple match
		d.state.rep[3], d.state.rep[2], d.state.rep[1] =
			d.state.rep[2], d.state.rep[1], d.state.rep[0]

		d.state.updateStateMatch()
		// The length decoder returns the length offset.
		n, err := d.state.lenCodec.Decode(&d.rd, posState)
		if err != nil {
			return lz.Seq{}, err
		}
		// The dist decoder returns the distance offset. The actual
		// distance is 1 higher.
		d.state.rep[0], err = d.state.distCodec.Decode(&d.rd, n)
		if err != nil {
			return lz.Seq{}, err
		}
		if d.state.rep[0] == eosDist {
			return lz.Seq{}, errEOS
		}
		return lz.Seq{MatchLen: n + minMatchLen,
			Offset: d.state.rep[0] + minDistance}, nil
	}
	b, err = d.rd.decodeBit(&s1.isRepG0)
	if err != nil {
		return lz.Seq{}, err
	}
	dist := d.state.rep[0]
	if b == 0 {
		// rep match 0
		b, err = d.rd.decodeBit(&s2.isRepG0Long)
		if err != nil {
			return lz.Seq{}, err
		}
		if b == 0 {
			d.state.updateStateShortRep()
			return lz.Seq{MatchLen: 1, Offset: dist + minDistance},
				nil
		}
	} else {
		b, err = d.rd.decodeBit(&s1.isRepG1)
		if err != nil {
			return lz.Seq{}, err
		}
		if b == 0 {
			dist = d.state.rep[1]
		} else {
			b, err = d.rd.decodeBit(&s1.isRepG2)
			if err != nil {
				return lz.Seq{}, err
			}
			if b == 0 {
				dist = d.state.rep[2]
			} else {
				dist = d.state.rep[3]
				d.state.rep[3] = d.state.rep[2]
			}
			d.state.rep[2] = d.state.rep[1]
		}
		d.state.rep[1] = d.state.rep[0]
		d.state.rep[0] = dist
	}
	n, err := d.state.repLenCodec.Decode(&d.rd, posState)
	if err != nil {
		return lz.Seq{}, err
	}
	d.state.updateStateRep()
	return lz.Seq{MatchLen: n + minMatchLen, Offset: dist + minDistance},
		nil
}
