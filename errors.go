// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma2

import (
	"errors"

	"github.com/ulikunitz/lz"
)

// ErrData reports a malformed or corrupted LZMA2 stream.
var ErrData = errors.New("lzma2: data error")

// ErrOptions reports an unsupported or invalid decoder configuration,
// typically from a malformed properties payload.
var ErrOptions = errors.New("lzma2: options error")

// ErrProg reports an internal inconsistency of the decoder. It should
// never be observed with this implementation.
var ErrProg = errors.New("lzma2: programming error")

// ErrFullBuffer is returned when the decoder cannot make progress
// before decompressed data has been read. It equals the flow control
// error of the lz decoder buffer.
var ErrFullBuffer = lz.ErrFullBuffer
