// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "golang.org/x/image/math/f32"

// Depth range of the UI projection. UI transforms may push elements far
// along z, so the range is kept wide.
const (
	orthoNear = -10000
	orthoFar  = 10000
)

// Identity returns the 4x4 identity matrix.
func Identity() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns an orthographic projection. Like every f32.Mat4 it is row
// major: m[4*row+col].
func Ortho(left, right, bottom, top, near, far float32) f32.Mat4 {
	return f32.Mat4{
		2 / (right - left), 0, 0, -(right + left) / (right - left),
		0, 2 / (top - bottom), 0, -(top + bottom) / (top - bottom),
		0, 0, -2 / (far - near), -(far + near) / (far - near),
		0, 0, 0, 1,
	}
}

// TargetProjection maps target pixels, origin top-left and y down, to clip
// space: (0,0) lands on (-1,1) and (width,height) on (1,-1).
func TargetProjection(width, height int) f32.Mat4 {
	return Ortho(0, float32(width), float32(height), 0, orthoNear, orthoFar)
}

// Scale returns a matrix scaling x and y.
func Scale(sx, sy float32) f32.Mat4 {
	m := Identity()
	m[0], m[5] = sx, sy
	return m
}

// Translate returns a matrix translating by (tx, ty).
func Translate(tx, ty float32) f32.Mat4 {
	m := Identity()
	m[3], m[7] = tx, ty
	return m
}

// Mul returns a × b.
func Mul(a, b *f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[4*i+k] * b[4*k+j]
			}
			m[4*i+j] = s
		}
	}
	return m
}

// Transform applies m to the point (x, y, 0, 1) and returns the homogeneous result.
func Transform(m *f32.Mat4, p f32.Vec2) f32.Vec4 {
	var out f32.Vec4
	for i := 0; i < 4; i++ {
		out[i] = m[4*i]*p[0] + m[4*i+1]*p[1] + m[4*i+3]
	}
	return out
}
