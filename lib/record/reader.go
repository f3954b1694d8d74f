// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Reader reads a sample stream written by [Writer].
type Reader struct {
	header      Header
	compression Compression
	decoder     *cbor.Decoder
	release     func()
}

// NewReader detects the stream's framing and reads its header.
func NewReader(r io.Reader) (*Reader, error) {
	stream, compression, release, err := decompressReader(r)
	if err != nil {
		return nil, err
	}
	reader := &Reader{
		compression: compression,
		decoder:     decMode.NewDecoder(stream),
		release:     release,
	}
	if err := reader.decoder.Decode(&reader.header); err != nil {
		release()
		if err == io.EOF {
			return nil, fmt.Errorf("reading header: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return reader, nil
}

// Header returns the stream header.
func (r *Reader) Header() Header { return r.header }

// Compression returns the detected framing.
func (r *Reader) Compression() Compression { return r.compression }

// Next returns the next sample, or io.EOF at the end of the stream.
func (r *Reader) Next() (Sample, error) {
	var sample Sample
	if err := r.decoder.Decode(&sample); err != nil {
		if err == io.EOF {
			return Sample{}, io.EOF
		}
		return Sample{}, fmt.Errorf("reading sample: %w", err)
	}
	return sample, nil
}

// All reads every remaining sample.
func (r *Reader) All() ([]Sample, error) {
	var samples []Sample
	for {
		sample, err := r.Next()
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return samples, err
		}
		samples = append(samples, sample)
	}
}

// Close releases decoder resources. The underlying reader is not closed.
func (r *Reader) Close() {
	r.release()
}
