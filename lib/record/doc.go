// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package record encodes bureau-perfmon sample streams.
//
// A stream is a CBOR sequence (RFC 8742): one [Header] followed by any
// number of [Sample] records, each encoded with Core Deterministic
// Encoding. The sequence may be wrapped in an LZ4 or zstd frame;
// [NewReader] detects the framing from the stream's magic bytes.
//
// Each event group in the header carries a BLAKE3 [Fingerprint] of its
// events, counters, and encoded configuration words, so samples from
// runs with different group definitions are never silently merged.
package record
