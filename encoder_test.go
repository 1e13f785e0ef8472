// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

// The following code is only provided for testing purposes. It
// implements enough of an LZMA2 encoder to produce conforming streams
// for the decoder tests: a range encoder, the encoding sides of the
// probability codecs and a chunk encoder with a simple hash-based
// match parser.

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ulikunitz/lz"
)

// rangeEncoder implements range encoding of single bits. The low
// value can overflow, therefore we need uint64. The cache value is
// used to handle overflows.
type rangeEncoder struct {
	w         *bytes.Buffer
	nrange    uint32
	low       uint64
	cacheSize int64
	cache     byte
}

func newRangeEncoder(w *bytes.Buffer) *rangeEncoder {
	return &rangeEncoder{w: w, nrange: 0xffffffff, cacheSize: 1}
}

// shiftLow shifts the low value for 8 bit. The shifted byte is written
// into the buffer. The cache value is used to handle overflows.
func (e *rangeEncoder) shiftLow() error {
	if uint32(e.low) < 0xff000000 || (e.low>>32) != 0 {
		tmp := e.cache
		for {
			e.w.WriteByte(tmp + byte(e.low>>32))
			tmp = 0xff
			e.cacheSize--
			if e.cacheSize <= 0 {
				if e.cacheSize < 0 {
					return errors.New(
						"negative e.cacheSize")
				}
				break
			}
		}
		e.cache = byte(uint32(e.low) >> 24)
	}
	e.cacheSize++
	e.low = uint64(uint32(e.low) << 8)
	return nil
}

// normalize handles shifts of nrange and low.
func (e *rangeEncoder) normalize() error {
	const top = 1 << 24
	if e.nrange >= top {
		return nil
	}
	e.nrange <<= 8
	return e.shiftLow()
}

// encodeBit encodes the least significant bit of b. The p value will
// be updated by the function depending on the bit encoded.
func (e *rangeEncoder) encodeBit(b uint32, p *prob) error {
	bound := p.bound(e.nrange)
	if b&1 == 0 {
		e.nrange = bound
		p.inc()
	} else {
		e.low += uint64(bound)
		e.nrange -= bound
		p.dec()
	}
	return e.normalize()
}

// directEncodeBit encodes the least-significant bit of b with
// probability 1/2.
func (e *rangeEncoder) directEncodeBit(b uint32) error {
	e.nrange >>= 1
	e.low += uint64(e.nrange) & (0 - (uint64(b) & 1))
	return e.normalize()
}

// Close writes a complete copy of the low value.
func (e *rangeEncoder) Close() error {
	for i := 0; i < 5; i++ {
		if err := e.shiftLow(); err != nil {
			return err
		}
	}
	return nil
}

// Encode uses the range encoder to encode a fixed-bit-size value.
func (tc *treeCodec) Encode(e *rangeEncoder, v uint32) (err error) {
	m := uint32(1)
	for i := int(tc.bits) - 1; i >= 0; i-- {
		b := (v >> uint(i)) & 1
		if err := e.encodeBit(b, &tc.probs[m]); err != nil {
			return err
		}
		m = (m << 1) | b
	}
	return nil
}

// Encode uses the range encoder to encode a fixed-bit-size value
// starting with the least-significant bit.
func (tc *treeReverseCodec) Encode(v uint32, e *rangeEncoder) (err error) {
	m := uint32(1)
	for i := uint(0); i < uint(tc.bits); i++ {
		b := (v >> i) & 1
		if err := e.encodeBit(b, &tc.probs[m]); err != nil {
			return err
		}
		m = (m << 1) | b
	}
	return nil
}

// Encode encodes a value with the fixed number of bits. The
// most-significant bit is encoded first.
func (dc directCodec) Encode(e *rangeEncoder, v uint32) error {
	for i := int(dc) - 1; i >= 0; i-- {
		if err := e.directEncodeBit(v >> uint(i)); err != nil {
			return err
		}
	}
	return nil
}

// Encode encodes the length offset. The length offset l can be
// computed by subtracting minMatchLen (2) from the actual length.
func (lc *lengthCodec) Encode(e *rangeEncoder, l uint32, posState uint32,
) (err error) {
	if l > maxMatchLen-minMatchLen {
		return errors.New("lengthCodec.Encode: l out of range")
	}
	if l < 8 {
		if err = e.encodeBit(0, &lc.choice[0]); err != nil {
			return
		}
		return lc.low[posState].Encode(e, l)
	}
	if err = e.encodeBit(1, &lc.choice[0]); err != nil {
		return
	}
	if l < 16 {
		if err = e.encodeBit(0, &lc.choice[1]); err != nil {
			return
		}
		return lc.mid[posState].Encode(e, l-8)
	}
	if err = e.encodeBit(1, &lc.choice[1]); err != nil {
		return
	}
	return lc.high.Encode(e, l-16)
}

// Encode encodes the byte s using the range encoder as well as the
// current operation state, a match byte and the literal state.
func (c *literalCodec) Encode(e *rangeEncoder, s byte,
	state uint32, match byte, litState uint32,
) (err error) {
	k := litState * 0x300
	probs := c.probs[k : k+0x300]
	symbol := uint32(1)
	r := uint32(s)
	if state >= 7 {
		m := uint32(match)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			bit := (r >> 7) & 1
			r <<= 1
			i := ((1 + matchBit) << 8) | symbol
			err = e.encodeBit(bit, &probs[i])
			if err != nil {
				return
			}
			symbol = (symbol << 1) | bit
			if matchBit != bit {
				break
			}
			if symbol >= 0x100 {
				break
			}
		}
	}
	for symbol < 0x100 {
		bit := (r >> 7) & 1
		r <<= 1
		err = e.encodeBit(bit, &probs[symbol])
		if err != nil {
			return
		}
		symbol = (symbol << 1) | bit
	}
	return nil
}

// Encode encodes the distance offset using the length offset l.
func (dc *distCodec) Encode(e *rangeEncoder, dist uint32, l uint32) (err error) {
	var posSlot uint32
	var nbits uint32
	if dist < startPosModel {
		posSlot = dist
	} else {
		nbits = 31
		for dist>>nbits == 0 {
			nbits--
		}
		nbits--
		posSlot = startPosModel - 2 + (nbits << 1)
		posSlot += (dist >> uint(nbits)) & 1
	}

	if err = dc.posSlotCodecs[lenState(l)].Encode(e, posSlot); err != nil {
		return
	}

	switch {
	case posSlot < startPosModel:
		return nil
	case posSlot < endPosModel:
		tc := &dc.posModel[posSlot-startPosModel]
		return tc.Encode(dist, e)
	}
	dic := directCodec(nbits - alignBits)
	if err = dic.Encode(e, dist>>alignBits); err != nil {
		return
	}
	return dc.alignCodec.Encode(dist, e)
}

// chunkEncoder encodes data into a sequence of LZMA2 chunks. It
// mirrors the decoder exactly: the probability model, the repetition
// distances and the produced history evolve the same way on both
// sides.
type chunkEncoder struct {
	state state
	props Properties
	// produced bytes since the last dictionary reset
	hist []byte
}

func (e *chunkEncoder) init(p Properties) {
	e.props = p
	e.state.init(p)
	e.hist = e.hist[:0]
}

func (e *chunkEncoder) byteAtEnd(i int64) byte {
	k := int64(len(e.hist)) - i
	if k < 0 {
		return 0
	}
	return e.hist[k]
}

func (e *chunkEncoder) appendMatch(seq lz.Seq) {
	d := int(seq.Offset)
	for i := 0; i < int(seq.MatchLen); i++ {
		e.hist = append(e.hist, e.hist[len(e.hist)-d])
	}
}

// encodeSeq encodes a single sequence mirroring the decisions readSeq
// takes on the decoding side.
func (e *chunkEncoder) encodeSeq(w *rangeEncoder, seq lz.Seq) error {
	pos := int64(len(e.hist))
	state, state2, posState := e.state.states(pos)
	s2 := &e.state.s2[state2]

	if seq.MatchLen == 0 {
		// literal
		if err := w.encodeBit(0, &s2.isMatch); err != nil {
			return err
		}
		c := byte(seq.Aux)
		litState := e.state.litState(e.byteAtEnd(1), pos)
		match := e.byteAtEnd(int64(e.state.rep[0]) + 1)
		err := e.state.litCodec.Encode(w, c, e.state.state, match,
			litState)
		if err != nil {
			return err
		}
		e.state.updateStateLiteral()
		e.hist = append(e.hist, c)
		return nil
	}

	if err := w.encodeBit(1, &s2.isMatch); err != nil {
		return err
	}
	s1 := &e.state.s1[state]
	dist := seq.Offset - minDistance

	g := -1
	for i, r := range e.state.rep {
		if dist == r {
			g = i
			break
		}
	}

	if g == 0 && seq.MatchLen == 1 {
		// short rep
		if err := w.encodeBit(1, &s1.isRep); err != nil {
			return err
		}
		if err := w.encodeBit(0, &s1.isRepG0); err != nil {
			return err
		}
		if err := w.encodeBit(0, &s2.isRepG0Long); err != nil {
			return err
		}
		e.state.updateStateShortRep()
		e.appendMatch(seq)
		return nil
	}

	if !(minMatchLen <= seq.MatchLen && seq.MatchLen <= maxMatchLen) {
		return fmt.Errorf("match length %d out of range", seq.MatchLen)
	}
	lenOff := seq.MatchLen - minMatchLen

	if g < 0 {
		// simple match
		if err := w.encodeBit(0, &s1.isRep); err != nil {
			return err
		}
		e.state.rep[3], e.state.rep[2], e.state.rep[1] =
			e.state.rep[2], e.state.rep[1], e.state.rep[0]
		e.state.rep[0] = dist
		e.state.updateStateMatch()
		err := e.state.lenCodec.Encode(w, lenOff, posState)
		if err != nil {
			return err
		}
		if err = e.state.distCodec.Encode(w, dist, lenOff); err != nil {
			return err
		}
		e.appendMatch(seq)
		return nil
	}

	// rep match
	if err := w.encodeBit(1, &s1.isRep); err != nil {
		return err
	}
	switch g {
	case 0:
		if err := w.encodeBit(0, &s1.isRepG0); err != nil {
			return err
		}
		if err := w.encodeBit(1, &s2.isRepG0Long); err != nil {
			return err
		}
	case 1:
		if err := w.encodeBit(1, &s1.isRepG0); err != nil {
			return err
		}
		if err := w.encodeBit(0, &s1.isRepG1); err != nil {
			return err
		}
		e.state.rep[1] = e.state.rep[0]
		e.state.rep[0] = dist
	case 2:
		if err := w.encodeBit(1, &s1.isRepG0); err != nil {
			return err
		}
		if err := w.encodeBit(1, &s1.isRepG1); err != nil {
			return err
		}
		if err := w.encodeBit(0, &s1.isRepG2); err != nil {
			return err
		}
		e.state.rep[2] = e.state.rep[1]
		e.state.rep[1] = e.state.rep[0]
		e.state.rep[0] = dist
	case 3:
		if err := w.encodeBit(1, &s1.isRepG0); err != nil {
			return err
		}
		if err := w.encodeBit(1, &s1.isRepG1); err != nil {
			return err
		}
		if err := w.encodeBit(1, &s1.isRepG2); err != nil {
			return err
		}
		e.state.rep[3] = e.state.rep[2]
		e.state.rep[2] = e.state.rep[1]
		e.state.rep[1] = e.state.rep[0]
		e.state.rep[0] = dist
	}
	err := e.state.repLenCodec.Encode(w, lenOff, posState)
	if err != nil {
		return err
	}
	e.state.updateStateRep()
	e.appendMatch(seq)
	return nil
}

// seqsSize returns the number of uncompressed bytes the sequences
// cover.
func seqsSize(seqs []lz.Seq) int {
	n := 0
	for _, s := range seqs {
		if s.MatchLen == 0 {
			n++
		} else {
			n += int(s.MatchLen)
		}
	}
	return n
}

// encodeChunkSeqs encodes the sequences as a single compressed chunk
// and appends the chunk to p. The control byte determines the reset
// behavior; props are only used if the control byte announces new
// properties.
func (e *chunkEncoder) encodeChunkSeqs(p []byte, ctrl control,
	seqs []lz.Seq, props Properties) (q []byte, err error) {

	switch {
	case ctrl.resetDict():
		e.hist = e.hist[:0]
		fallthrough
	case ctrl.newProps():
		e.props = props
		e.state.init(props)
	case ctrl.resetState():
		e.state.reset()
	}

	body := new(bytes.Buffer)
	w := newRangeEncoder(body)
	for _, s := range seqs {
		if err = e.encodeSeq(w, s); err != nil {
			return p, err
		}
	}
	if err = w.Close(); err != nil {
		return p, err
	}

	hdr := chunkHeader{
		ctrl:           ctrl,
		size:           seqsSize(seqs),
		compressedSize: body.Len(),
		properties:     e.props,
	}
	if q, err = hdr.append(p); err != nil {
		return p, err
	}
	return append(q, body.Bytes()...), nil
}

// encodeChunk parses data into sequences against the current history
// and encodes them as a single compressed chunk appended to p.
func (e *chunkEncoder) encodeChunk(p []byte, ctrl control, data []byte,
	props Properties, maxDist int) (q []byte, err error) {

	hist := e.hist
	if ctrl.resetDict() {
		hist = nil
	}
	seqs := parseSeqs(hist, data, maxDist)
	return e.encodeChunkSeqs(p, ctrl, seqs, props)
}

// appendRawChunk appends an uncompressed chunk to p. The probability
// state is not touched, only the history grows.
func (e *chunkEncoder) appendRawChunk(p []byte, ctrl control, data []byte,
) (q []byte, err error) {
	if ctrl != copyCtrl && ctrl != copyResetDictCtrl {
		return p, errors.New("invalid control byte for raw chunk")
	}
	if ctrl.resetDict() {
		e.hist = e.hist[:0]
	}
	hdr := chunkHeader{ctrl: ctrl, size: len(data)}
	if q, err = hdr.append(p); err != nil {
		return p, err
	}
	q = append(q, data...)
	e.hist = append(e.hist, data...)
	return q, nil
}

// parseSeqs converts data into literal and match sequences. Matches
// may reach back into the window. The parser is greedy and hash-based;
// it doesn't have to be clever, only correct.
func parseSeqs(window, data []byte, maxDist int) []lz.Seq {
	comb := make([]byte, 0, len(window)+len(data))
	comb = append(comb, window...)
	comb = append(comb, data...)

	tab := make(map[uint32]int)
	for j := 0; j+4 <= len(window); j++ {
		tab[binary.LittleEndian.Uint32(comb[j:])] = j
	}

	var seqs []lz.Seq
	i, end := len(window), len(comb)
	for i < end {
		if i+4 <= end {
			h := binary.LittleEndian.Uint32(comb[i:])
			j, ok := tab[h]
			tab[h] = i
			if ok && i-j <= maxDist {
				ml := 4
				for i+ml < end && ml < maxMatchLen &&
					comb[j+ml] == comb[i+ml] {
					ml++
				}
				seqs = append(seqs, lz.Seq{
					MatchLen: uint32(ml),
					Offset:   uint32(i - j),
				})
				i += ml
				continue
			}
		}
		seqs = append(seqs, lz.Seq{LitLen: 1, Aux: uint32(comb[i])})
		i++
	}
	return seqs
}

// encodeStream encodes data as a complete LZMA2 stream including the
// end-of-stream marker. The first chunk resets the dictionary and
// carries the properties; the ctrls slice cycles over the control
// bytes used for the subsequent chunks.
func encodeStream(data []byte, props Properties, dictSize, chunkSize int,
	ctrls []control) (p []byte, err error) {

	var e chunkEncoder
	e.init(props)

	ctrl := packedResetDictCtrl
	for i, k := 0, 0; i < len(data) || i == 0; i, k = i+chunkSize, k+1 {
		chunk := data[i:]
		if len(chunk) > chunkSize {
			chunk = chunk[:chunkSize]
		}
		if len(chunk) == 0 {
			break
		}
		if k > 0 {
			ctrl = ctrls[(k-1)%len(ctrls)]
		}
		if ctrl == copyCtrl || ctrl == copyResetDictCtrl {
			p, err = e.appendRawChunk(p, ctrl, chunk)
		} else {
			p, err = e.encodeChunk(p, ctrl, chunk, props, dictSize)
		}
		if err != nil {
			return nil, err
		}
	}
	return append(p, byte(eosCtrl)), nil
}
