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

package udpstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
)

const (
	pointSize        = 9
	intrinsicsFloats = 24
	// IntrinsicsPacketLen is the magic plus 24 big-endian float32 values.
	IntrinsicsPacketLen = 4 + intrinsicsFloats*4
)

var (
	ErrEncoding        = errors.New("frame encoding failed")
	ErrBadPointPayload = errors.New("point payload is not a multiple of 9 bytes")
	ErrBadIntrinsics   = errors.New("malformed intrinsics packet")
)

// Point is a colored point in meters.
type Point struct {
	X, Y, Z float32
	R, G, B uint8
}

// QuantizedPoint is a point as carried on the wire: millimeters and raw color.
type QuantizedPoint struct {
	X, Y, Z int16
	R, G, B uint8
}

// quantize converts meters to millimeters in float32, truncating toward zero.
// Values beyond ±32.767m wrap.
func quantize(m float32) int16 {
	v := m * 1000
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}

	return int16(int64(v))
}

// QuantizePoints packs each point as x,y,z int16 mm big-endian then r,g,b.
func QuantizePoints(points []Point) []byte {
	out := make([]byte, 0, len(points)*pointSize)

	for _, p := range points {
		out = binary.BigEndian.AppendUint16(out, uint16(quantize(p.X)))
		out = binary.BigEndian.AppendUint16(out, uint16(quantize(p.Y)))
		out = binary.BigEndian.AppendUint16(out, uint16(quantize(p.Z)))
		out = append(out, p.R, p.G, p.B)
	}

	return out
}

func DecodePoints(b []byte) ([]QuantizedPoint, error) {
	if len(b)%pointSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadPointPayload, len(b))
	}

	out := make([]QuantizedPoint, len(b)/pointSize)

	for i := range out {
		p := b[i*pointSize:]
		out[i] = QuantizedPoint{
			X: int16(binary.BigEndian.Uint16(p[0:])),
			Y: int16(binary.BigEndian.Uint16(p[2:])),
			Z: int16(binary.BigEndian.Uint16(p[4:])),
			R: p[6],
			G: p[7],
			B: p[8],
		}
	}

	return out, nil
}

// EncodeJPEG encodes an RGB frame at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrEncoding)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: jpeg: %w", ErrEncoding, err)
	}

	return buf.Bytes(), nil
}

// EncodeDepthPNG packs 16-bit depth into a lossless 8-bit RGB PNG with the
// high byte in red, the low byte in green and zero in blue.
func EncodeDepthPNG(depth *image.Gray16) ([]byte, error) {
	if depth == nil || depth.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty depth image", ErrEncoding)
	}

	bounds := depth.Bounds()
	packed := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := depth.Gray16At(x, y).Y
			packed.SetRGBA(x, y, color.RGBA{R: uint8(d >> 8), G: uint8(d), B: 0, A: 0xFF})
		}
	}

	var buf bytes.Buffer

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, packed); err != nil {
		return nil, fmt.Errorf("%w: png: %w", ErrEncoding, err)
	}

	return buf.Bytes(), nil
}

// DecodeDepthPNG reverses EncodeDepthPNG.
func DecodeDepthPNG(b []byte) (*image.Gray16, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := image.NewGray16(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.SetGray16(x, y, color.Gray16{Y: uint16(c.R)<<8 | uint16(c.G)})
		}
	}

	return out, nil
}

// CameraIntrinsics describes one camera's pinhole model.
type CameraIntrinsics struct {
	Fx     float32 `json:"fx"`
	Fy     float32 `json:"fy"`
	PPX    float32 `json:"ppx"`
	PPY    float32 `json:"ppy"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Extrinsics maps depth camera coordinates into the color camera frame.
// Rotation is row-major 3x3.
type Extrinsics struct {
	Rotation    [9]float32 `json:"rotation"`
	Translation [3]float32 `json:"translation"`
}

type Intrinsics struct {
	RGB        CameraIntrinsics `json:"rgb"`
	Depth      CameraIntrinsics `json:"depth"`
	Extrinsics Extrinsics       `json:"extrinsics"`
}

func (c CameraIntrinsics) floats() []float32 {
	return []float32{c.Fx, c.Fy, c.PPX, c.PPY, float32(c.Width), float32(c.Height)}
}

// MarshalBinary encodes the 100-byte intrinsics packet.
func (in Intrinsics) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, IntrinsicsPacketLen)
	out = binary.BigEndian.AppendUint32(out, MagicIntrinsics)

	floats := make([]float32, 0, intrinsicsFloats)
	floats = append(floats, in.RGB.floats()...)
	floats = append(floats, in.Depth.floats()...)
	floats = append(floats, in.Extrinsics.Rotation[:]...)
	floats = append(floats, in.Extrinsics.Translation[:]...)

	for _, f := range floats {
		out = binary.BigEndian.AppendUint32(out, math.Float32bits(f))
	}

	return out, nil
}

func UnmarshalIntrinsics(b []byte) (Intrinsics, error) {
	if len(b) != IntrinsicsPacketLen {
		return Intrinsics{}, fmt.Errorf("%w: %d bytes", ErrBadIntrinsics, len(b))
	}

	if m := binary.BigEndian.Uint32(b); m != MagicIntrinsics {
		return Intrinsics{}, fmt.Errorf("%w: magic %#x", ErrBadIntrinsics, m)
	}

	f := make([]float32, intrinsicsFloats)
	for i := range f {
		f[i] = math.Float32frombits(binary.BigEndian.Uint32(b[4+i*4:]))
	}

	camera := func(v []float32) CameraIntrinsics {
		return CameraIntrinsics{Fx: v[0], Fy: v[1], PPX: v[2], PPY: v[3], Width: int(v[4]), Height: int(v[5])}
	}

	var in Intrinsics

	in.RGB = camera(f[0:6])
	in.Depth = camera(f[6:12])
	copy(in.Extrinsics.Rotation[:], f[12:21])
	copy(in.Extrinsics.Translation[:], f[21:24])

	return in, nil
}
