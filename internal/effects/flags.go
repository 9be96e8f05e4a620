package effects

import (
	"fmt"
	"strings"
)

// Flags is the set of active optional effects.
type Flags uint32

const (
	EffectTAA Flags = 1 << iota
	EffectAO
	EffectSSR
	EffectVolumetric
	EffectMotionBlur
	EffectDOF
	EffectBloom

	EffectNone Flags = 0
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{EffectTAA, "taa"},
	{EffectAO, "ao"},
	{EffectSSR, "ssr"},
	{EffectVolumetric, "volumetric"},
	{EffectMotionBlur, "motion_blur"},
	{EffectDOF, "dof"},
	{EffectBloom, "bloom"},
}

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f && f != 0
}

func (fl Flags) String() string {
	if fl == EffectNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if fl&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseFlags parses a comma-separated list such as "bloom,dof,motion_blur".
func ParseFlags(s string) (Flags, error) {
	var fl Flags
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "none" {
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == part || (part == "motionblur" && fn.flag == EffectMotionBlur) {
				fl |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return EffectNone, fmt.Errorf("effects: unknown effect %q", part)
		}
	}
	return fl, nil
}
