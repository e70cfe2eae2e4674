package bloom

// Vec2 represents a 2D point or vector in float32, the precision GPU
// uniforms use.
type Vec2 struct {
	X, Y float32
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns the vector scaled by a scalar.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// MulV returns the componentwise product of two vectors.
func (v Vec2) MulV(w Vec2) Vec2 {
	return Vec2{X: v.X * w.X, Y: v.Y * w.Y}
}

// Mat4 is a row-major 4x4 matrix, laid out exactly as it is written
// into uniform buffers.
type Mat4 [16]float32

// Mat4Identity returns the identity matrix.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Scale returns a matrix scaling x by sx and y by sy.
func Mat4Scale(sx, sy float32) Mat4 {
	return Mat4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Translate returns a matrix translating by (tx, ty).
func Mat4Translate(tx, ty float32) Mat4 {
	return Mat4{
		1, 0, 0, tx,
		0, 1, 0, ty,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the matrix product m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * n[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// TransformPoint applies m to the point (x, y, 0, 1) and returns the
// transformed x and y.
func (m Mat4) TransformPoint(x, y float32) (float32, float32) {
	tx := m[0]*x + m[1]*y + m[3]
	ty := m[4]*x + m[5]*y + m[7]
	return tx, ty
}

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min, Max Vec2
}

// NDCRect returns the axis-aligned bounds, in normalized device
// coordinates, of the unit quad [-1,1]x[-1,1] transformed by m.
func NDCRect(m Mat4) Rect {
	corners := [4][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	x0, y0 := m.TransformPoint(corners[0][0], corners[0][1])
	r := Rect{Min: Vec2{x0, y0}, Max: Vec2{x0, y0}}
	for _, c := range corners[1:] {
		x, y := m.TransformPoint(c[0], c[1])
		if x < r.Min.X {
			r.Min.X = x
		}
		if x > r.Max.X {
			r.Max.X = x
		}
		if y < r.Min.Y {
			r.Min.Y = y
		}
		if y > r.Max.Y {
			r.Max.Y = y
		}
	}
	return r
}

// OutsideNDC reports whether r lies entirely outside the [-1,1]x[-1,1]
// clip volume, i.e. nothing of the quad would be visible.
func (r Rect) OutsideNDC() bool {
	return r.Max.X < -1 || r.Min.X > 1 || r.Max.Y < -1 || r.Min.Y > 1
}
