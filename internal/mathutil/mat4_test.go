package mathutil

import (
	"math"
	"testing"
)

func TestMat4InverseRoundTrip(t *testing.T) {
	m := Mat4Mul(
		Perspective(math.Pi/3, 16.0/9, 0.1, 100),
		CameraToWorld(Vec3{1, 2, 3}, 0.4, -0.2).Inverse(),
	)
	if !Mat4Mul(m, m.Inverse()).IsIdentity() {
		t.Error("m * m^-1 is not the identity")
	}
}

func TestMat4ProjectUnproject(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 0.5, 50)
	pts := []Vec3{{0, 0, -1}, {1, -2, -10}, {-3, 3, -49}}
	for _, v := range pts {
		ndc, ok := p.Project(v)
		if !ok {
			t.Fatalf("%v reported behind the camera", v)
		}
		back := p.Inverse().Unproject(ndc)
		if back.Sub(v).Len() > 1e-9 {
			t.Errorf("unproject(project(%v)) = %v", v, back)
		}
	}
	if _, ok := p.Project(Vec3{0, 0, 1}); ok {
		t.Error("point behind the camera projected")
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(math.Pi/3, 1, 0.1, 100)
	near, _ := p.Project(Vec3{0, 0, -0.1})
	far, _ := p.Project(Vec3{0, 0, -100})
	if math.Abs(near[2]+1) > 1e-9 || math.Abs(far[2]-1) > 1e-9 {
		t.Errorf("near z %v, far z %v", near[2], far[2])
	}
}

func TestWindowTranslateShiftsNDC(t *testing.T) {
	p := Perspective(math.Pi/3, 4.0/3, 0.1, 100)
	j := p.WindowTranslate(0.01, -0.02)
	for _, v := range []Vec3{{0.3, 0.1, -2}, {-4, 2, -30}} {
		a, _ := p.Project(v)
		b, _ := j.Project(v)
		if math.Abs(b[0]-a[0]-0.01) > 1e-12 || math.Abs(b[1]-a[1]+0.02) > 1e-12 || math.Abs(b[2]-a[2]) > 1e-12 {
			t.Errorf("%v: %v -> %v", v, a, b)
		}
	}
}

func TestScaleTranslationCancelsWithInverse(t *testing.T) {
	c2w := CameraToWorld(Vec3{4, -1, 7}, 1.1, 0.3)
	w2c := c2w.Inverse()
	for _, s := range []float64{0, 0.5, 1} {
		if !Mat4Mul(w2c.ScaleTranslation(s), c2w.ScaleTranslation(s)).IsIdentity() {
			t.Errorf("shutter %v: scaled transforms do not cancel", s)
		}
	}
	if got := c2w.ScaleTranslation(0.5).Translation(); got.Sub(Vec3{2, -0.5, 3.5}).Len() > 1e-12 {
		t.Errorf("translation = %v", got)
	}
}

func TestApproxEqual(t *testing.T) {
	a := Mat4Identity()
	b := a
	b[3] += 1e-7
	if !a.ApproxEqual(b, 1e-6) {
		t.Error("difference below tolerance reported unequal")
	}
	if a.ApproxEqual(b, 1e-8) {
		t.Error("difference above tolerance reported equal")
	}
}

func TestInverseOfSingularIsIdentity(t *testing.T) {
	if !(Mat4{}).Inverse().IsIdentity() {
		t.Error("singular inverse should fall back to identity")
	}
}
