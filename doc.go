// Copyright 2026 Niklas Vainio. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lzma2 decodes the LZMA2 format, a chunked container around
// raw LZMA streams. An LZMA2 stream is a sequence of chunks, each
// either storing data uncompressed or holding a single LZMA-compressed
// segment, followed by a one-byte end-of-stream marker. Chunk headers
// control when the dictionary, the probability state and the LZMA
// properties are reset.
//
// The Decoder type provides a push-style interface: compressed bytes
// are fed with Write in arbitrary slices and decompressed data is
// drained with Read. NewReader wraps the same machinery into an
// io.Reader over a compressed source stream.
package lzma2
