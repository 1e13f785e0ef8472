// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

// control represents the first byte of an LZMA2 chunk header.
type control byte

// Constants for control bytes
const (
	// end of stream
	eosCtrl control = 0
	// copy content but reset dictionary
	copyResetDictCtrl control = 0x01
	// copy content without resetting the dictionary
	copyCtrl control = 0x02
	// mask for control bytes of a packed chunk
	packedMask control = 0xe0
	// packed chunk; no update on state, properties or dictionary
	packedCtrl control = 0x80
	// packed chunk; reset state
	packedResetStateCtrl control = 0xa0
	// packed chunk; reset state, new properties
	packedNewPropsCtrl control = 0xc0
	// packed chunk; reset state, new properties, reset dictionary
	packedResetDictCtrl control = 0xe0
)

func (c control) eos() bool {
	return c == eosCtrl
}

func (c control) packed() bool {
	return c&packedCtrl == packedCtrl
}

func (c control) resetDict() bool {
	if !c.packed() {
		return c == copyResetDictCtrl
	}
	return c&packedMask == packedResetDictCtrl
}

func (c control) resetState() bool {
	if !c.packed() {
		return false
	}
	return c&packedMask >= packedResetStateCtrl
}

func (c control) newProps() bool {
	if !c.packed() {
		return false
	}
	return c&packedMask >= packedNewPropsCtrl
}

// resetLevel returns the two reset bits of a packed control byte. The
// levels are: 0 nothing, 1 state reset, 2 state reset and new
// properties, 3 like 2 plus a dictionary reset.
func (c control) resetLevel() int {
	return int(c>>5) & 3
}

// sizeHighBits returns the highest five bits of the uncompressed chunk
// size stored in a packed control byte, already shifted in place.
func (c control) sizeHighBits() int {
	if !c.packed() {
		return 0
	}
	return int(c&^packedMask) << 16
}
