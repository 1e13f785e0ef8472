// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

// Number of states of the operation encoding. The state tracks the
// recent history of literals, matches and repetitions.
const states = 12

// maxPosBits defines the number of bits of the position value that are
// used to compute the posState value. The value is used to select the
// tree codec for length encoding and decoding.
const maxPosBits = 4

type state1Probs struct {
	isRep   prob
	isRepG0 prob
	isRepG1 prob
	isRepG2 prob
}

func initS1Probs(p []state1Probs) {
	for i := range p {
		p[i] = state1Probs{probInit, probInit, probInit, probInit}
	}
}

type state2Probs struct {
	isMatch     prob
	isRepG0Long prob
}

func initS2Probs(p []state2Probs) {
	for i := range p {
		p[i] = state2Probs{probInit, probInit}
	}
}

// state holds the complete probability model of an LZMA stream together
// with the repetition distances and the operation state.
type state struct {
	s1          [states]state1Probs
	s2          [states << maxPosBits]state2Probs
	litCodec    literalCodec
	lenCodec    lengthCodec
	repLenCodec lengthCodec
	distCodec   distCodec
	Properties
	rep        [4]uint32
	state      uint32
	posBitMask uint32
}

// init sets new properties and resets the full model.
func (s *state) init(p Properties) {
	*s = state{Properties: p}
	s.reset()
}

// reset reinitializes the model keeping the current properties.
func (s *state) reset() {
	p := s.Properties
	*s = state{
		Properties: p,
		posBitMask: (1 << p.PB) - 1,
	}
	initS1Probs(s.s1[:])
	initS2Probs(s.s2[:])
	s.litCodec.init(p.LC, p.LP)
	s.lenCodec.init()
	s.repLenCodec.init()
	s.distCodec.init()
}

// updateStateLiteral updates the state for a literal.
func (s *state) updateStateLiteral() {
	switch {
	case s.state < 4:
		s.state = 0
		return
	case s.state < 10:
		s.state -= 3
		return
	}
	s.state -= 6
}

// updateStateMatch updates the state for a match.
func (s *state) updateStateMatch() {
	if s.state < 7 {
		s.state = 7
	} else {
		s.state = 10
	}
}

// updateStateRep updates the state for a repetition.
func (s *state) updateStateRep() {
	if s.state < 7 {
		s.state = 8
	} else {
		s.state = 11
	}
}

// updateStateShortRep updates the state for a short repetition.
func (s *state) updateStateShortRep() {
	if s.state < 7 {
		s.state = 9
	} else {
		s.state = 11
	}
}

// states computes the states of the operation codec for the given
// position of the uncompressed data.
func (s *state) states(pos int64) (state1, state2, posState uint32) {
	state1 = s.state
	posState = uint32(pos) & s.posBitMask
	state2 = (s.state << maxPosBits) | posState
	return
}

// litState computes the literal state from the previous byte and the
// position of the uncompressed data.
func (s *state) litState(prev byte, pos int64) uint32 {
	return ((uint32(pos) & ((1 << s.LP) - 1)) << s.LC) |
		(uint32(prev) >> (8 - s.LC))
}

// moveBits defines the number of bits used for the updates of
// probability values.
const moveBits = 5

// probBits defines the number of bits of a probability value.
const probBits = 11

// probInit defines 0.5 as initial value for prob values.
const probInit prob = 1 << (probBits - 1)

// Type prob represents probabilities. The type can also be used to
// encode and decode single bits.
type prob uint16

// dec decreases the probability. The decrease is proportional to the
// probability value.
func (p *prob) dec() {
	*p -= *p >> moveBits
}

// inc increases the probability. The increase is proportional to the
// difference of 1 and the probability value.
func (p *prob) inc() {
	*p += ((1 << probBits) - *p) >> moveBits
}

// bound computes the new bound for a given range using the probability
// value.
func (p prob) bound(r uint32) uint32 {
	return (r >> probBits) * uint32(p)
}

// minMatchLen and maxMatchLen give the minimum and maximum values for
// encoding and decoding length values. minMatchLen is also used as base
// for the encoded length values.
const (
	minMatchLen = 2
	maxMatchLen = minMatchLen + 16 + 256 - 1
)

// lengthCodec supports the coding of the length value.
type lengthCodec struct {
	choice [2]prob
	low    [1 << maxPosBits]treeCodec
	mid    [1 << maxPosBits]treeCodec
	high   treeCodec
}

// init initializes a new length codec.
func (lc *lengthCodec) init() {
	for i := range lc.choice {
		lc.choice[i] = probInit
	}
	for i := range lc.low {
		lc.low[i] = makeTreeCodec(3)
	}
	for i := range lc.mid {
		lc.mid[i] = makeTreeCodec(3)
	}
	lc.high = makeTreeCodec(8)
}

// Decode reads the length offset. Add minMatchLen to the length offset
// l to compute the actual length.
func (lc *lengthCodec) Decode(d *rangeDecoder, posState uint32,
) (l uint32, err error) {
	var b uint32
	b, err = d.decodeBit(&lc.choice[0])
	if err != nil {
		return
	}
	if b == 0 {
		l, err = lc.low[posState].Decode(d)
		return
	}
	b, err = d.decodeBit(&lc.choice[1])
	if err != nil {
		return
	}
	if b == 0 {
		l, err = lc.mid[posState].Decode(d)
		l += 8
		return
	}
	l, err = lc.high.Decode(d)
	l += 16
	return
}

// treeCodec codes values with a fixed bit size using a tree of
// probability values. The root of the tree is the most-significant bit.
type treeCodec struct {
	probTree
}

// makeTreeCodec makes a tree codec. The bits value must be inside the
// range [1,32].
func makeTreeCodec(bits int) treeCodec {
	return treeCodec{makeProbTree(bits)}
}

// Decode uses the range decoder to decode a fixed-bit-size value.
// Errors may be caused by the range decoder.
func (tc *treeCodec) Decode(d *rangeDecoder) (v uint32, err error) {
	m := uint32(1)
	for j := 0; j < int(tc.bits); j++ {
		b, err := d.decodeBit(&tc.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | b
	}
	return m - (1 << uint(tc.bits)), nil
}

// treeReverseCodec is another tree codec, where the least-significant
// bit is the start of the probability tree.
type treeReverseCodec struct {
	probTree
}

// makeTreeReverseCodec creates a treeReverseCodec value. The bits
// argument must be in the range [1,32].
func makeTreeReverseCodec(bits int) treeReverseCodec {
	return treeReverseCodec{makeProbTree(bits)}
}

// Decode uses the range decoder to decode a fixed-bit-size value.
// Errors returned by the range decoder will be returned.
func (tc *treeReverseCodec) Decode(d *rangeDecoder) (v uint32, err error) {
	m := uint32(1)
	for j := uint(0); j < uint(tc.bits); j++ {
		b, err := d.decodeBit(&tc.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | b
		v |= b << j
	}
	return v, nil
}

// probTree stores enough probability values to be used by the tree
// coding methods of the range coder types.
type probTree struct {
	probs []prob
	bits  byte
}

// makeProbTree initializes a probTree structure.
func makeProbTree(bits int) probTree {
	if !(1 <= bits && bits <= 32) {
		panic("bits outside of range [1,32]")
	}
	t := probTree{
		bits:  byte(bits),
		probs: make([]prob, 1<<uint(bits)),
	}
	for i := range t.probs {
		t.probs[i] = probInit
	}
	return t
}

// literalCodec supports the coding of literals. It provides 768
// probability values per literal state. The upper 512 probabilities are
// used with the context of a match bit.
type literalCodec struct {
	probs []prob
}

// init initializes the literal codec.
func (c *literalCodec) init(lc, lp int) {
	switch {
	case !(minLC <= lc && lc <= maxLC):
		panic("lc out of range")
	case !(minLP <= lp && lp <= maxLP):
		panic("lp out of range")
	}
	c.probs = make([]prob, 0x300<<uint(lc+lp))
	for i := range c.probs {
		c.probs[i] = probInit
	}
}

// Decode decodes a literal byte using the range decoder as well as the
// LZMA state, a match byte, and the literal state.
func (c *literalCodec) Decode(d *rangeDecoder,
	state uint32, match byte, litState uint32,
) (s byte, err error) {
	k := litState * 0x300
	probs := c.probs[k : k+0x300]
	symbol := uint32(1)
	if state >= 7 {
		m := uint32(match)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			i := ((1 + matchBit) << 8) | symbol
			bit, err := d.decodeBit(&probs[i])
			if err != nil {
				return 0, err
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
		bit, err := d.decodeBit(&probs[symbol])
		if err != nil {
			return 0, err
		}
		symbol = (symbol << 1) | bit
	}
	s = byte(symbol - 0x100)
	return s, nil
}

// minLC and maxLC define the range for LC values.
const (
	minLC = 0
	maxLC = 8
)

// minLP and maxLP define the range for LP values.
const (
	minLP = 0
	maxLP = 4
)

// Constants used by the distance codec.
const (
	// minimum supported distance
	minDistance = 1
	// number of the supported len states
	lenStates = 4
	// start for the position models
	startPosModel = 4
	// first index with align bits support
	endPosModel = 14
	// bits for the position slots
	posSlotBits = 6
	// number of align bits
	alignBits = 4
)

// distCodec provides encoding and decoding of distance values.
type distCodec struct {
	posSlotCodecs [lenStates]treeCodec
	posModel      [endPosModel - startPosModel]treeReverseCodec
	alignCodec    treeReverseCodec
}

// init initializes the distance codec.
func (dc *distCodec) init() {
	for i := range dc.posSlotCodecs {
		dc.posSlotCodecs[i] = makeTreeCodec(posSlotBits)
	}
	for i := range dc.posModel {
		posSlot := startPosModel + i
		bits := (posSlot >> 1) - 1
		dc.posModel[i] = makeTreeReverseCodec(bits)
	}
	dc.alignCodec = makeTreeReverseCodec(alignBits)
}

// lenState converts the value l to a supported lenState value.
func lenState(l uint32) uint32 {
	if l >= lenStates {
		l = lenStates - 1
	}
	return l
}

// Decode decodes the distance offset using the parameter l. The dist
// value 0xffffffff (eos) indicates the end of the stream. Add one to
// the distance offset to get the actual match distance.
func (dc *distCodec) Decode(d *rangeDecoder, l uint32) (dist uint32, err error) {
	posSlot, err := dc.posSlotCodecs[lenState(l)].Decode(d)
	if err != nil {
		return
	}

	// posSlot equals distance
	if posSlot < startPosModel {
		return posSlot, nil
	}

	// posSlot uses the individual models
	bits := (posSlot >> 1) - 1
	dist = (2 | (posSlot & 1)) << bits
	var u uint32
	if posSlot < endPosModel {
		tc := &dc.posModel[posSlot-startPosModel]
		if u, err = tc.Decode(d); err != nil {
			return 0, err
		}
		dist += u
		return dist, nil
	}

	// posSlots use direct encoding and a single model for the four align
	// bits.
	dic := directCodec(bits - alignBits)
	if u, err = dic.Decode(d); err != nil {
		return 0, err
	}
	dist += u << alignBits
	if u, err = dc.alignCodec.Decode(d); err != nil {
		return 0, err
	}
	dist += u
	return dist, nil
}

// directCodec codes values with a fixed number of bits at probability
// 1/2. The number of bits must be in the range [1,32].
type directCodec byte

// Decode uses the range decoder to decode a value with the given number
// of bits. The most-significant bit is decoded first.
func (dc directCodec) Decode(d *rangeDecoder) (v uint32, err error) {
	for i := int(dc) - 1; i >= 0; i-- {
		x, err := d.directDecodeBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | x
	}
	return v, nil
}
