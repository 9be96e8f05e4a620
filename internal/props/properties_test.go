package props

import (
	"slices"
	"testing"

	"gopkg.in/yaml.v2"
)

func TestValueText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(-42), "-42"},
		{Float(0.25), "0.25"},
		{Float(1e21), "1e+21"},
		{String("hello"), "hello"},
		{Bool(true), "TRUE"},
		{Bool(false), "FALSE"},
		{List(Int(1), String("a"), List(Bool(true))), "[1, a, [TRUE]]"},
		{Value{}, ""},
	}
	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("%v.Text() = %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if Int(1).Equal(Float(1)) {
		t.Error("values of different kinds compared equal")
	}
	if !List(Int(1), Int(2)).Equal(List(Int(1), Int(2))) {
		t.Error("equal lists compared unequal")
	}
	if List(Int(1)).Equal(List(Int(1), Int(2))) {
		t.Error("lists of different length compared equal")
	}
}

func TestValueAccessors(t *testing.T) {
	if f, ok := Int(3).AsFloat(); !ok || f != 3 {
		t.Errorf("Int.AsFloat = %v, %v", f, ok)
	}
	if _, ok := String("x").AsInt(); ok {
		t.Error("String.AsInt succeeded")
	}
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Error("Bool.AsBool failed")
	}
}

func TestPropertiesOrderAndOwnership(t *testing.T) {
	p := New()
	p.Set("zeta", Int(1))
	p.Set("alpha", Float(2))
	p.Set("mid", String("x"))
	p.Set("alpha", Float(3))

	if got := p.Names(); !slices.Equal(got, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("Names = %v", got)
	}
	if name, v, ok := p.At(0); !ok || name != "alpha" || !v.Equal(Float(3)) {
		t.Errorf("At(0) = %q %v %v", name, v, ok)
	}
	if _, _, ok := p.At(3); ok {
		t.Error("At past the end succeeded")
	}

	items := []Value{Int(1)}
	p.Set("list", List(items...))
	items[0] = Int(99)
	if v, _ := p.Get("list"); !v.Equal(List(Int(1))) {
		t.Error("stored list aliases caller memory")
	}

	c := p.Clone()
	p.Set("mid", String("changed"))
	if c.String("mid", "") != "x" {
		t.Error("clone shares entries")
	}

	if !p.Remove("zeta") || p.Remove("zeta") {
		t.Error("Remove should report only the first removal")
	}
	if p.Len() != 3 {
		t.Errorf("Len = %d", p.Len())
	}
	p.Clear()
	if p.Len() != 0 {
		t.Error("Clear left entries")
	}
}

func TestPropertiesTypedDefaults(t *testing.T) {
	p := New()
	p.Set("n", Int(7))
	p.Set("on", Bool(true))
	p.Set("s", String("str"))

	if p.Int("n", 0) != 7 || p.Float("n", 0) != 7 {
		t.Error("int lookups failed")
	}
	if !p.Bool("on", false) || p.Bool("missing", false) {
		t.Error("bool lookups failed")
	}
	if p.Int("s", -1) != -1 {
		t.Error("mismatched kind should return the default")
	}
}

func TestPropertiesYAML(t *testing.T) {
	src := "bloom_enable: true\nbloom_intensity: 0.1\ntaa_samples: 8\nlabel: demo\nsizes: [1, 2]\n"
	p := New()
	if err := yaml.Unmarshal([]byte(src), p); err != nil {
		t.Fatal(err)
	}
	if !p.Bool("bloom_enable", false) || p.Int("taa_samples", 0) != 8 || p.Float("bloom_intensity", 0) != 0.1 {
		t.Errorf("decoded %v", p.Names())
	}
	if v, _ := p.Get("sizes"); !v.Equal(List(Int(1), Int(2))) {
		t.Errorf("sizes = %v", v)
	}

	out, err := yaml.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	back := New()
	if err := yaml.Unmarshal(out, back); err != nil {
		t.Fatal(err)
	}
	for _, name := range p.Names() {
		a, _ := p.Get(name)
		b, _ := back.Get(name)
		if !a.Equal(b) {
			t.Errorf("%s: %v != %v", name, a, b)
		}
	}
}
