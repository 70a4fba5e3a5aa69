// Package math provides small vector types for exported geometry.
package math

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Vec3 is a 3D point or vector.
type Vec3 struct {
	X, Y, Z float32
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Min returns the component-wise minimum.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{math32.Min(v.X, other.X), math32.Min(v.Y, other.Y), math32.Min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{math32.Max(v.X, other.X), math32.Max(v.Y, other.Y), math32.Max(v.Z, other.Z)}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return !math32.IsNaN(v.X) && !math32.IsInf(v.X, 0) &&
		!math32.IsNaN(v.Y) && !math32.IsInf(v.Y, 0) &&
		!math32.IsNaN(v.Z) && !math32.IsInf(v.Z, 0)
}

// Bounds is an axis-aligned bounding box. The zero value is empty.
type Bounds struct {
	Min   Vec3
	Max   Vec3
	Count int
}

// Extend grows the box to contain p. Non-finite points are ignored.
func (b *Bounds) Extend(p Vec3) {
	if !p.IsFinite() {
		return
	}
	if b.Count == 0 {
		b.Min, b.Max = p, p
	} else {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	b.Count++
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return b.Count == 0
}

// Size returns the box extent along each axis.
func (b Bounds) Size() Vec3 {
	if b.Empty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// String renders the box as "(minX, minY, minZ) - (maxX, maxY, maxZ)".
// Negative zero prints as 0.
func (b Bounds) String() string {
	if b.Empty() {
		return "(empty)"
	}
	lo, hi := b.Min.unsignedZero(), b.Max.unsignedZero()
	return fmt.Sprintf("(%g, %g, %g) - (%g, %g, %g)", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
}

func (v Vec3) unsignedZero() Vec3 {
	if v.X == 0 {
		v.X = 0
	}
	if v.Y == 0 {
		v.Y = 0
	}
	if v.Z == 0 {
		v.Z = 0
	}
	return v
}
