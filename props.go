// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import "fmt"

// Properties define the LC, LP and PB parameters of the LZMA
// compression method.
type Properties struct {
	LC int
	LP int
	PB int
}

// byte returns the single byte encoding the properties.
func (p Properties) byte() byte {
	return (byte)((p.PB*5+p.LP)*9 + p.LC)
}

// fromByte decodes the properties from a single byte as stored in a
// chunk header.
func (p *Properties) fromByte(b byte) error {
	p.LC = int(b % 9)
	b /= 9
	p.LP = int(b % 5)
	b /= 5
	p.PB = int(b)
	if p.PB > 4 {
		return fmt.Errorf("lzma2: invalid properties byte: %w", ErrData)
	}
	return nil
}

// Verify checks the properties for their valid ranges.
func (p Properties) Verify() error {
	if !(0 <= p.LC && p.LC <= 8) {
		return fmt.Errorf("lzma2: LC out of range 0..8: %w", ErrOptions)
	}
	if !(0 <= p.LP && p.LP <= 4) {
		return fmt.Errorf("lzma2: LP out of range 0..4: %w", ErrOptions)
	}
	if !(0 <= p.PB && p.PB <= 4) {
		return fmt.Errorf("lzma2: PB out of range 0..4: %w", ErrOptions)
	}
	return nil
}
