// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestTargetProjection(t *testing.T) {
	m := TargetProjection(800, 600)
	tests := []struct {
		name         string
		in           f32.Vec2
		wantX, wantY float32
	}{
		{"top-left", f32.Vec2{0, 0}, -1, 1},
		{"bottom-right", f32.Vec2{800, 600}, 1, -1},
		{"center", f32.Vec2{400, 300}, 0, 0},
		{"top-right", f32.Vec2{800, 0}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(&m, tt.in)
			if !approx(got[0], tt.wantX) || !approx(got[1], tt.wantY) || !approx(got[3], 1) {
				t.Errorf("Transform(%v) = %v, want (%v, %v, _, 1)", tt.in, got, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestOrthoDepth(t *testing.T) {
	m := Ortho(0, 1, 1, 0, orthoNear, orthoFar)
	// z = 0 sits in the middle of the depth range.
	if got := m[11]; !approx(got, 0) {
		t.Errorf("depth offset = %v, want 0", got)
	}
}

func TestMulIdentity(t *testing.T) {
	id := Identity()
	m := TargetProjection(320, 200)
	if got := Mul(&id, &m); got != m {
		t.Errorf("I*M = %v, want %v", got, m)
	}
	if got := Mul(&m, &id); got != m {
		t.Errorf("M*I = %v, want %v", got, m)
	}
}

func TestMulOrder(t *testing.T) {
	scale := Scale(2, 2)
	translate := Translate(10, 0)

	// Scale after translate: (1+10)*2.
	m := Mul(&scale, &translate)
	if got := Transform(&m, f32.Vec2{1, 0}); !approx(got[0], 22) {
		t.Errorf("x = %v, want 22", got[0])
	}
}

func TestPutConstantsColumnMajor(t *testing.T) {
	var m f32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[4*row+col] = float32(row*10 + col)
		}
	}
	var buf [pushConstantSize]byte
	putConstants(&buf, &m, f32.Vec2{7, 8})

	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			if got, want := floatAt(buf[:], col*4+row), m[4*row+col]; got != want {
				t.Errorf("word %d = %v, want m[%d][%d] = %v", col*4+row, got, row, col, want)
			}
		}
	}
	if floatAt(buf[:], 16) != 7 || floatAt(buf[:], 17) != 8 {
		t.Errorf("translation = (%v, %v), want (7, 8)", floatAt(buf[:], 16), floatAt(buf[:], 17))
	}
}

func TestPutVertices(t *testing.T) {
	vs, _ := quad()
	vs[2].Color.R = 9
	buf := make([]byte, len(vs)*VertexSize)
	putVertices(buf, vs)

	v := buf[2*VertexSize:]
	if floatAt(v, 0) != 10 || floatAt(v, 1) != 10 {
		t.Errorf("position = (%v, %v), want (10, 10)", floatAt(v, 0), floatAt(v, 1))
	}
	if v[8] != 9 || v[11] != 255 {
		t.Errorf("color bytes = %v, want [9 255 255 255]", v[8:12])
	}
	if floatAt(v, 3) != 1 || floatAt(v, 4) != 1 {
		t.Errorf("uv = (%v, %v), want (1, 1)", floatAt(v, 3), floatAt(v, 4))
	}
}
