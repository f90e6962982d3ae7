package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3NormalizeScaled(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want Vec3
	}{
		{"unit z", Vec3{0, 0, 1}, Vec3{0, 0, 1}},
		{"tiny accumulator", Vec3{0, 0, 1e-12}, Vec3{0, 0, 1}},
		{"diagonal", Vec3{2, 2, 0}, Vec3{float32(math.Sqrt2 / 2), float32(math.Sqrt2 / 2), 0}},
		{"zero", Vec3{}, Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.NormalizeScaled()
			if !got.ApproxEqual(tt.want, 1e-6) {
				t.Errorf("NormalizeScaled(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("expected finite vector")
	}
	nan := float32(math.NaN())
	if (Vec3{0, nan, 0}).IsFinite() {
		t.Error("expected NaN vector to be reported as non-finite")
	}
	if (Vec3{float32(math.Inf(-1)), 0, 0}).IsFinite() {
		t.Error("expected infinite vector to be reported as non-finite")
	}
}
