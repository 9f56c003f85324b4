package core

import (
	"math"
	"testing"
)

func TestVec3_BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	sum := a.Add(b)
	if sum != NewVec3(5, 7, 9) {
		t.Errorf("Add: got %v", sum)
	}

	diff := b.Subtract(a)
	if diff != NewVec3(3, 3, 3) {
		t.Errorf("Subtract: got %v", diff)
	}

	if dot := a.Dot(b); dot != 32 {
		t.Errorf("Dot: got %f, expected 32", dot)
	}

	cross := NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0))
	if cross != NewVec3(0, 0, 1) {
		t.Errorf("Cross: got %v, expected (0,0,1)", cross)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if math.Abs(v.Length()-1.0) > 1e-12 {
		t.Errorf("normalized length = %f, expected 1", v.Length())
	}

	// Zero vector stays zero instead of producing NaN
	zero := Vec3{}.Normalize()
	if !zero.IsZero() {
		t.Errorf("normalizing zero vector gave %v", zero)
	}
}

func TestVec3_Mean(t *testing.T) {
	c := NewColor(0.3, 0.6, 0.9)
	if math.Abs(c.Mean()-0.6) > 1e-12 {
		t.Errorf("Mean: got %f, expected 0.6", c.Mean())
	}
}

func TestVec3_IsFinite(t *testing.T) {
	if !NewVec3(1, 2, 3).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if NewVec3(math.Inf(1), 0, 0).IsFinite() {
		t.Error("infinite vector reported finite")
	}
	if NewVec3(0, math.NaN(), 0).IsFinite() {
		t.Error("NaN vector reported finite")
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 0, 0), NewVec3(0, 1, 0))
	point := ray.At(2.5)
	if point != NewVec3(1, 2.5, 0) {
		t.Errorf("Ray.At: got %v", point)
	}
}
