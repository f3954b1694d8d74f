// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Writer writes a sample stream. It is safe for concurrent use; each
// record is written whole.
type Writer struct {
	mutex      sync.Mutex
	compressor io.WriteCloser
	encoder    *cbor.Encoder
	closed     bool
}

// NewWriter writes header to w with the given framing and returns a
// writer for the samples that follow. Close the writer to flush the
// frame; w itself is not closed.
func NewWriter(w io.Writer, compression Compression, header Header) (*Writer, error) {
	compressor, err := compressWriter(w, compression)
	if err != nil {
		return nil, err
	}
	writer := &Writer{
		compressor: compressor,
		encoder:    encMode.NewEncoder(compressor),
	}
	if err := writer.encoder.Encode(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return writer, nil
}

// WriteSample appends sample to the stream.
func (w *Writer) WriteSample(sample Sample) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return errors.New("record: write to closed writer")
	}
	if err := w.encoder.Encode(sample); err != nil {
		return fmt.Errorf("writing sample for cpu %d: %w", sample.CPU, err)
	}
	return nil
}

// Close flushes any compression frame. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.compressor.Close()
}
