// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"fmt"
	"math"
)

// maxDictSize defines the maximum dictionary capacity supported by the
// LZMA2 dictionary capacity encoding.
const maxDictSize = 1<<32 - 1

// maxDictSizeCode defines the maximum dictionary size code.
const maxDictSizeCode = 40

// The function decodes the dictionary capacity byte, but doesn't check
// for the correct range of the given byte.
func decodeDictSize(c byte) int64 {
	return (2 | int64(c)&1) << (11 + (c>>1)&0x1f)
}

// DecodeDictSize decodes the encoded dictionary capacity. The function
// returns an error if the code is out of range.
func DecodeDictSize(c byte) (n int64, err error) {
	if c >= maxDictSizeCode {
		if c == maxDictSizeCode {
			return maxDictSize, nil
		}
		return 0, fmt.Errorf(
			"lzma2: invalid dictionary size code %d: %w",
			c, ErrOptions)
	}
	return decodeDictSize(c), nil
}

// EncodeDictSize encodes a dictionary capacity. The function returns
// the code for the capacity that is greater or equal n. If n exceeds
// the maximum supported dictionary capacity, the maximum value is
// returned.
func EncodeDictSize(n int64) byte {
	a, b := byte(0), byte(40)
	for a < b {
		c := a + (b-a)>>1
		m := decodeDictSize(c)
		if n <= m {
			if n == m {
				return c
			}
			b = c
		} else {
			a = c + 1
		}
	}
	return a
}

// ParseProps converts the properties payload of an LZMA2 filter, a
// single byte holding the dictionary size code, into a decoder
// configuration.
func ParseProps(p []byte) (cfg DecoderConfig, err error) {
	if len(p) != 1 {
		return cfg, fmt.Errorf(
			"lzma2: properties length must be 1 byte: %w",
			ErrOptions)
	}
	if p[0]&0xc0 != 0 {
		return cfg, fmt.Errorf(
			"lzma2: properties byte %#02x has reserved bits set: %w",
			p[0], ErrOptions)
	}
	n, err := DecodeDictSize(p[0])
	if err != nil {
		return cfg, err
	}
	if n > math.MaxInt {
		return cfg, fmt.Errorf(
			"lzma2: dictionary size %d exceeds max integer: %w",
			n, ErrOptions)
	}
	cfg.DictSize = int(n)
	return cfg, nil
}

// Memory usage that doesn't scale with the dictionary size: the
// decoder structures and the worst-case probability models, for which
// LC+LP <= 4 holds in LZMA2.
const fixedMemUsage = 32 << 10

// MemUsage computes the memory usage in bytes of a decoder for the
// given properties payload. For the dictionary size code 40, covering
// the full 32-bit range, the usage cannot be computed and
// math.MaxUint64 is returned.
func MemUsage(p []byte) (n uint64, err error) {
	cfg, err := ParseProps(p)
	if err != nil {
		return 0, err
	}
	if p[0] == maxDictSizeCode {
		return math.MaxUint64, nil
	}
	dictSize := uint64(cfg.DictSize)
	if dictSize < minDictSize {
		dictSize = minDictSize
	}
	bufSize := 2 * dictSize
	if m := uint64(maxUncompressedChunkSize) + dictSize; bufSize < m {
		bufSize = m
	}
	return fixedMemUsage + bufSize, nil
}
