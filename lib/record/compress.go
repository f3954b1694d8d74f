// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the framing around a sample stream.
type Compression uint8

const (
	// CompressionNone writes the CBOR sequence as-is.
	CompressionNone Compression = 0

	// CompressionLZ4 wraps the stream in an LZ4 frame. Cheapest on
	// the sampling host.
	CompressionLZ4 Compression = 1

	// CompressionZstd wraps the stream in a zstd frame at the default
	// level.
	CompressionZstd Compression = 2
)

// Frame magic numbers, as they appear on the wire.
var (
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

// String returns the configuration name of a compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression from its configuration name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// nopWriteCloser leaves the underlying writer open on Close.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w in the framing for c. Closing the result
// flushes the frame but does not close w.
func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %d", c)
	}
}

// decompressReader detects the framing of r from its first bytes and
// returns a reader over the decompressed stream. The release function
// frees decoder resources.
func decompressReader(r io.Reader) (io.Reader, Compression, func(), error) {
	buffered := bufio.NewReader(r)
	magic, err := buffered.Peek(4)
	if err != nil && err != io.EOF {
		return nil, 0, nil, fmt.Errorf("reading stream magic: %w", err)
	}

	switch {
	case bytes.Equal(magic, lz4Magic):
		return lz4.NewReader(buffered), CompressionLZ4, func() {}, nil
	case bytes.Equal(magic, zstdMagic):
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return decoder, CompressionZstd, decoder.Close, nil
	default:
		return buffered, CompressionNone, func() {}, nil
	}
}
