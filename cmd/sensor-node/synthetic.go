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

package main

import (
	"image"
	"image/color"
	"math"

	"github.com/carverauto/noderadar/pkg/schema"
	"github.com/carverauto/noderadar/pkg/udpstream"
)

const (
	nearMM = 500
	farMM  = 4500
)

// gradientFrame is a red/green gradient whose blue channel cycles with tick.
func gradientFrame(w, h int, tick uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	blue := uint8(tick)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: blue,
				A: 0xff,
			})
		}
	}

	return img
}

// depthRamp is a horizontal ramp in millimeters that scrolls with tick.
func depthRamp(w, h int, tick uint32) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	shift := int(tick) % w

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			col := (x + shift) % w
			img.SetGray16(x, y, color.Gray16{Y: uint16(nearMM + col*(farMM-nearMM)/max(w-1, 1))})
		}
	}

	return img
}

// spherePoints spreads n points over a sphere using the golden-angle spiral,
// spinning it about the vertical axis with tick.
func spherePoints(n int, radius float64, tick uint32) []udpstream.Point {
	points := make([]udpstream.Point, 0, n)
	golden := math.Pi * (3 - math.Sqrt(5))
	spin := float64(tick) * 0.05

	for i := 0; i < n; i++ {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - y*y)
		theta := golden*float64(i) + spin

		points = append(points, udpstream.Point{
			X: float32(radius * r * math.Cos(theta)),
			Y: float32(radius * y),
			Z: float32(radius*r*math.Sin(theta) + 1.5),
			R: uint8(127 + 127*r*math.Cos(theta)),
			G: uint8(127 + 127*y),
			B: uint8(127 + 127*r*math.Sin(theta)),
		})
	}

	return points
}

func syntheticIntrinsics(w, h int) udpstream.Intrinsics {
	cam := udpstream.CameraIntrinsics{
		Fx:     float32(w) * 0.9,
		Fy:     float32(w) * 0.9,
		PPX:    float32(w) / 2,
		PPY:    float32(h) / 2,
		Width:  w,
		Height: h,
	}

	return udpstream.Intrinsics{
		RGB:   cam,
		Depth: cam,
		Extrinsics: udpstream.Extrinsics{
			Rotation: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
		},
	}
}

func floatPtr(v float64) *float64 { return &v }

// sensorSchemas is what the demo node publishes: a few tunables and a reset action.
func sensorSchemas() (schema.ConfigSchema, schema.ActionSchema) {
	config := schema.ConfigSchema{
		{Kind: schema.KindHeader, Label: "Stream", Options: &schema.HeaderOptions{DefaultOpen: true}},
		{Kind: schema.KindBool, Label: "RGB", Default: true},
		{Kind: schema.KindBool, Label: "Depth", Default: true},
		{Kind: schema.KindBool, Label: "Point cloud", Default: true},
		{
			Kind:    schema.KindInt,
			Label:   "Points",
			Options: &schema.NumberOptions{Min: floatPtr(100), Max: floatPtr(20000), HorizontalSlider: true},
			Default: float64(defaultPoints),
		},
		{Kind: schema.KindEnd},
	}

	actions := schema.ActionSchema{
		"reset": {Button: "Reset"},
		"sphere_radius": {
			Widgets: []schema.Widget{{
				Kind:    schema.KindFloat,
				Label:   "Radius (m)",
				Options: &schema.NumberOptions{Min: floatPtr(0.1), Max: floatPtr(3)},
				Default: 0.5,
			}},
			Button: "Apply",
		},
	}

	return config, actions
}
