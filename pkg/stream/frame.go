/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package stream carries length-prefixed JSON messages over TCP.
package stream

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	lengthPrefixSize = 4
	// MaxFrameSize bounds a single message; larger declared lengths are a protocol error.
	MaxFrameSize = 16 << 20
)

var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// EncodeFrame serializes v as JSON behind a 4-byte big-endian length.
func EncodeFrame(v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	return frame(payload)
}

func frame(payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	out := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[lengthPrefixSize:], payload)

	return out, nil
}

// FrameBuffer accumulates stream bytes and yields complete frame payloads.
// It is not safe for concurrent use.
type FrameBuffer struct {
	buf []byte
	max int
}

func NewFrameBuffer(maxFrame int) *FrameBuffer {
	if maxFrame <= 0 {
		maxFrame = MaxFrameSize
	}

	return &FrameBuffer{max: maxFrame}
}

func (b *FrameBuffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

// Next returns the next complete payload, or false when more bytes are needed.
func (b *FrameBuffer) Next() ([]byte, bool, error) {
	if len(b.buf) < lengthPrefixSize {
		return nil, false, nil
	}

	n := binary.BigEndian.Uint32(b.buf)
	if int64(n) > int64(b.max) {
		return nil, false, fmt.Errorf("%w: declared %d bytes", ErrFrameTooLarge, n)
	}

	end := lengthPrefixSize + int(n)
	if len(b.buf) < end {
		return nil, false, nil
	}

	payload := make([]byte, n)
	copy(payload, b.buf[lengthPrefixSize:end])

	b.buf = b.buf[end:]
	if len(b.buf) == 0 {
		b.buf = nil
	}

	return payload, true, nil
}

// Frames drains every complete payload currently buffered.
func (b *FrameBuffer) Frames() ([][]byte, error) {
	var out [][]byte

	for {
		p, ok, err := b.Next()
		if err != nil {
			return out, err
		}

		if !ok {
			return out, nil
		}

		out = append(out, p)
	}
}

// Buffered reports how many bytes are waiting for a complete frame.
func (b *FrameBuffer) Buffered() int {
	return len(b.buf)
}

func (b *FrameBuffer) Reset() {
	b.buf = nil
}
