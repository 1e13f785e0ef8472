// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import "github.com/ulikunitz/lz"

// codec is the contract between the chunk framing layer and the
// decoder handling compressed chunk bodies. The framing layer hands
// body bytes to decode in arbitrary slices, bounded by the compressed
// size declared in the chunk header, and calls finish once the full
// body has been delivered.
//
// expect announces the uncompressed size of the next chunk and the
// position of the chunk start in the uncompressed stream. reset
// installs new properties and resets the probability model; resetState
// resets the model keeping the properties. Neither touches the
// dictionary, which is owned by the framing layer.
type codec interface {
	reset(p Properties)
	resetState()
	expect(size int, pos int64)
	decode(buf *lz.DecoderBuffer, p []byte) (n int, err error)
	finish(buf *lz.DecoderBuffer) error
	memusage() uint64
}
