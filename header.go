// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"errors"
	"fmt"
	"io"
)

// Limits for the sizes stored in a chunk header. A chunk carries at
// most 64 KiB of compressed and at most 2 MiB of uncompressed data.
const (
	maxChunkSize             = 1 << 16
	maxUncompressedChunkSize = 1 << 21
)

// chunkHeader represents a chunk header.
type chunkHeader struct {
	ctrl           control
	compressedSize int
	size           int
	properties     Properties
}

// parseChunkHeader reads the next chunk header from the reader.
func parseChunkHeader(r io.Reader) (h chunkHeader, err error) {
	p := make([]byte, 1, 6)
	if _, err = io.ReadFull(r, p); err != nil {
		return h, err
	}
	h.ctrl = control(p[0])
	if !h.ctrl.packed() {
		switch h.ctrl {
		case eosCtrl:
			return h, nil
		case copyCtrl, copyResetDictCtrl:
			break
		default:
			return h, fmt.Errorf(
				"lzma2: unsupported chunk header"+
					" control byte %02x: %w", p[0], ErrData)
		}
		if _, err = io.ReadFull(r, p[1:3]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return h, err
		}
		h.size = int(getBE16(p[1:3])) + 1
		return h, nil
	}
	if h.ctrl.newProps() {
		p = p[0:6]
	} else {
		p = p[0:5]
	}
	if _, err = io.ReadFull(r, p[1:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return h, err
	}
	h.size = h.ctrl.sizeHighBits() + int(getBE16(p[1:3])) + 1
	h.ctrl &= packedMask
	h.compressedSize = int(getBE16(p[3:5])) + 1
	if h.ctrl.newProps() {
		if err = h.properties.fromByte(p[5]); err != nil {
			return h, err
		}
	}
	return h, nil
}

// append appends the binary representation of the chunk header to p. An
// error is returned if the values in the chunk header are inconsistent.
func (h chunkHeader) append(p []byte) (q []byte, err error) {
	if h.ctrl == eosCtrl {
		return append(p, byte(eosCtrl)), nil
	}
	var d [6]byte
	d[0] = byte(h.ctrl)
	if !h.ctrl.packed() {
		if h.ctrl != copyCtrl && h.ctrl != copyResetDictCtrl {
			return p, errors.New("lzma2: invalid chunk header")
		}
		if !(1 <= h.size && h.size <= maxChunkSize) {
			return p, fmt.Errorf(
				"lzma2: chunk header size %d out of range"+
					" for uncompressed chunk", h.size)
		}
		putBE16(d[1:], uint16(h.size-1))
		return append(p, d[:3]...), nil
	}
	if !(1 <= h.size && h.size <= maxUncompressedChunkSize) {
		return p, errors.New(
			"lzma2: chunk header uncompressed size out of range")
	}
	if !(1 <= h.compressedSize && h.compressedSize <= maxChunkSize) {
		return p, fmt.Errorf("lzma2: chunk header compressed size %d"+
			" is out of range", h.compressedSize)
	}
	us := h.size - 1
	d[0] |= byte(us >> 16)
	putBE16(d[1:], uint16(us))
	putBE16(d[3:], uint16(h.compressedSize-1))
	if !h.ctrl.newProps() {
		return append(p, d[:5]...), nil
	}
	d[5] = h.properties.byte()
	return append(p, d[:6]...), nil
}
