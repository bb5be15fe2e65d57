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

// Package udpstream sends camera frames, depth maps and point clouds to a peer
// as fire-and-forget fragmented UDP packets.
package udpstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	Magic           uint32 = 0xDEADBEEF
	MagicIntrinsics uint32 = 0xCAFEBABE

	HeaderSize           = 13
	PointCloudHeaderSize = 17
)

type FrameType uint8

const (
	FrameTypeRGB        FrameType = 0
	FrameTypeDepth      FrameType = 1
	FrameTypePointCloud FrameType = 2
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeRGB:
		return "rgb"
	case FrameTypeDepth:
		return "depth"
	case FrameTypePointCloud:
		return "pointcloud"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

var (
	ErrShortPacket      = errors.New("packet shorter than header")
	ErrBadMagic         = errors.New("bad magic")
	ErrChunkTooSmall    = errors.New("chunk size leaves no room for payload")
	ErrTooManyFragments = errors.New("payload needs more than 65535 fragments")
	ErrIncompleteFrame  = errors.New("incomplete frame")
)

// Header prefixes every fragment: magic, frame type, frame id, fragment
// sequence and total, all big-endian. Point-cloud fragments add the point count.
type Header struct {
	Type          FrameType
	FrameID       uint32
	FragmentSeq   uint16
	FragmentTotal uint16
	PointCount    uint32
}

// Size is the encoded header length for this frame type.
func (h Header) Size() int {
	if h.Type == FrameTypePointCloud {
		return PointCloudHeaderSize
	}

	return HeaderSize
}

func (h Header) AppendBinary(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, Magic)
	b = append(b, byte(h.Type))
	b = binary.BigEndian.AppendUint32(b, h.FrameID)
	b = binary.BigEndian.AppendUint16(b, h.FragmentSeq)
	b = binary.BigEndian.AppendUint16(b, h.FragmentTotal)

	if h.Type == FrameTypePointCloud {
		b = binary.BigEndian.AppendUint32(b, h.PointCount)
	}

	return b
}

// ParseHeader decodes a fragment header and returns it with the remaining payload.
func ParseHeader(packet []byte) (Header, []byte, error) {
	if len(packet) < HeaderSize {
		return Header{}, nil, ErrShortPacket
	}

	if m := binary.BigEndian.Uint32(packet); m != Magic {
		return Header{}, nil, fmt.Errorf("%w: %#x", ErrBadMagic, m)
	}

	h := Header{
		Type:          FrameType(packet[4]),
		FrameID:       binary.BigEndian.Uint32(packet[5:]),
		FragmentSeq:   binary.BigEndian.Uint16(packet[9:]),
		FragmentTotal: binary.BigEndian.Uint16(packet[11:]),
	}

	if h.Type == FrameTypePointCloud {
		if len(packet) < PointCloudHeaderSize {
			return Header{}, nil, ErrShortPacket
		}

		h.PointCount = binary.BigEndian.Uint32(packet[13:])
	}

	return h, packet[h.Size():], nil
}

// Fragment splits payload into ceil(len/(chunkSize-headerSize)) slices. The
// slices alias payload.
func Fragment(payload []byte, chunkSize, headerSize int) ([][]byte, error) {
	per := chunkSize - headerSize
	if per <= 0 {
		return nil, fmt.Errorf("%w: chunk %d, header %d", ErrChunkTooSmall, chunkSize, headerSize)
	}

	total := (len(payload) + per - 1) / per
	if total > 0xFFFF {
		return nil, fmt.Errorf("%w: %d", ErrTooManyFragments, total)
	}

	out := make([][]byte, 0, total)

	for start := 0; start < len(payload); start += per {
		end := min(start+per, len(payload))
		out = append(out, payload[start:end])
	}

	return out, nil
}

// BuildPackets fragments payload and prefixes each slice with its header.
// h carries the frame type, id and point count; sequence fields are filled in.
func BuildPackets(h Header, payload []byte, chunkSize int) ([][]byte, error) {
	frags, err := Fragment(payload, chunkSize, h.Size())
	if err != nil {
		return nil, err
	}

	packets := make([][]byte, len(frags))
	h.FragmentTotal = uint16(len(frags))

	for i, f := range frags {
		h.FragmentSeq = uint16(i)

		p := make([]byte, 0, h.Size()+len(f))
		p = h.AppendBinary(p)
		packets[i] = append(p, f...)
	}

	return packets, nil
}

// Reassemble orders the fragments of one frame by sequence and joins their
// payloads. All fragments must be present.
func Reassemble(packets [][]byte) (Header, []byte, error) {
	type frag struct {
		seq     uint16
		payload []byte
	}

	if len(packets) == 0 {
		return Header{}, nil, ErrIncompleteFrame
	}

	var first Header

	frags := make([]frag, 0, len(packets))

	for i, p := range packets {
		h, payload, err := ParseHeader(p)
		if err != nil {
			return Header{}, nil, err
		}

		if i == 0 {
			first = h
		} else if h.FrameID != first.FrameID || h.Type != first.Type {
			return Header{}, nil, fmt.Errorf("%w: mixed frames", ErrIncompleteFrame)
		}

		frags = append(frags, frag{seq: h.FragmentSeq, payload: payload})
	}

	if len(frags) != int(first.FragmentTotal) {
		return Header{}, nil, fmt.Errorf("%w: have %d of %d", ErrIncompleteFrame, len(frags), first.FragmentTotal)
	}

	sort.Slice(frags, func(i, j int) bool { return frags[i].seq < frags[j].seq })

	var out []byte

	for i, f := range frags {
		if int(f.seq) != i {
			return Header{}, nil, fmt.Errorf("%w: missing fragment %d", ErrIncompleteFrame, i)
		}

		out = append(out, f.payload...)
	}

	first.FragmentSeq = 0

	return first, out, nil
}
