package core

import (
	"math"
	"testing"
)

func TestTransform_InverseRoundTrip(t *testing.T) {
	transform := Translate(NewVec3(1, 2, 3)).
		Compose(RotateY(0.7)).
		Compose(Scale(NewVec3(2, 3, 0.5)))

	point := NewVec3(0.3, -1.2, 4.5)
	roundTrip := transform.InverseApply(transform.Apply(point))
	if roundTrip.Subtract(point).Length() > 1e-9 {
		t.Errorf("inverse(apply(p)) = %v, expected %v", roundTrip, point)
	}

	vector := NewVec3(-2, 0.5, 1)
	roundTripVec := transform.InverseApplyVector(transform.ApplyVector(vector))
	if roundTripVec.Subtract(vector).Length() > 1e-9 {
		t.Errorf("inverse(apply(v)) = %v, expected %v", roundTripVec, vector)
	}
}

func TestTransform_TranslationIgnoredForVectors(t *testing.T) {
	transform := Translate(NewVec3(10, 20, 30))
	v := NewVec3(1, 1, 1)
	if transform.ApplyVector(v) != v {
		t.Errorf("translation moved a vector: %v", transform.ApplyVector(v))
	}
	if transform.Apply(Vec3{}) != NewVec3(10, 20, 30) {
		t.Errorf("translation did not move a point")
	}
}

func TestTransform_NormalUsesInverseTranspose(t *testing.T) {
	// Squashing a surface along y must keep normals perpendicular:
	// a 45-degree plane normal should tilt toward y, not away
	transform := Scale(NewVec3(1, 0.5, 1))

	surfaceDir := transform.ApplyVector(NewVec3(1, 1, 0)).Normalize()
	normal := transform.ApplyNormal(NewVec3(-1, 1, 0)).Normalize()

	if math.Abs(surfaceDir.Dot(normal)) > 1e-9 {
		t.Errorf("transformed normal %v is not perpendicular to surface %v", normal, surfaceDir)
	}
}

func TestTransform_LookAt(t *testing.T) {
	origin := NewVec3(0, 1, 5)
	target := NewVec3(0, 1, 0)
	transform := LookAt(origin, target, NewVec3(0, 1, 0))

	// The camera's local +z must map to the viewing direction
	forward := transform.ApplyVector(NewVec3(0, 0, 1))
	expected := target.Subtract(origin).Normalize()
	if forward.Subtract(expected).Length() > 1e-9 {
		t.Errorf("LookAt forward = %v, expected %v", forward, expected)
	}

	if transform.Apply(Vec3{}) != origin {
		t.Errorf("LookAt origin = %v, expected %v", transform.Apply(Vec3{}), origin)
	}
}

func TestMatrix4_SingularInverse(t *testing.T) {
	var singular Matrix4 // all zeros
	if _, ok := singular.Inverse(); ok {
		t.Error("inverting a singular matrix should fail")
	}
	if NewTransform(singular) != nil {
		t.Error("NewTransform should reject a singular matrix")
	}
}
