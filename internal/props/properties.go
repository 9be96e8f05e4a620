package props

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v2"
)

// Properties is a name→Value map kept in name order. Entries are owned:
// values are copied in and out, so callers cannot alias a stored list.
type Properties struct {
	names  []string
	values map[string]Value
}

func New() *Properties {
	return &Properties{values: make(map[string]Value)}
}

// Set stores v under name, replacing any previous value.
func (p *Properties) Set(name string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[name]; !exists {
		i := sort.SearchStrings(p.names, name)
		p.names = append(p.names, "")
		copy(p.names[i+1:], p.names[i:])
		p.names[i] = name
	}
	p.values[name] = own(v)
}

// Get returns the value stored under name.
func (p *Properties) Get(name string) (Value, bool) {
	v, ok := p.values[name]
	if !ok {
		return Value{}, false
	}
	return own(v), true
}

// Remove deletes name and reports whether it was present.
func (p *Properties) Remove(name string) bool {
	if _, ok := p.values[name]; !ok {
		return false
	}
	delete(p.values, name)
	i := sort.SearchStrings(p.names, name)
	p.names = append(p.names[:i], p.names[i+1:]...)
	return true
}

// Names returns the property names in order.
func (p *Properties) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// At returns the i-th property in name order.
func (p *Properties) At(i int) (string, Value, bool) {
	if i < 0 || i >= len(p.names) {
		return "", Value{}, false
	}
	name := p.names[i]
	return name, own(p.values[name]), true
}

func (p *Properties) Len() int { return len(p.names) }

// Clear drops every property.
func (p *Properties) Clear() {
	p.names = nil
	p.values = make(map[string]Value)
}

// Clone returns an independent copy.
func (p *Properties) Clone() *Properties {
	c := New()
	for _, n := range p.names {
		c.Set(n, p.values[n])
	}
	return c
}

// Merge copies every entry of o into p, overwriting on conflict.
func (p *Properties) Merge(o *Properties) {
	if o == nil {
		return
	}
	for _, n := range o.names {
		p.Set(n, o.values[n])
	}
}

func (p *Properties) Bool(name string, def bool) bool {
	if v, ok := p.values[name]; ok {
		if b, ok := v.AsBool(); ok {
			return b
		}
	}
	return def
}

func (p *Properties) Int(name string, def int) int {
	if v, ok := p.values[name]; ok {
		if i, ok := v.AsInt(); ok {
			return int(i)
		}
	}
	return def
}

func (p *Properties) Float(name string, def float64) float64 {
	if v, ok := p.values[name]; ok {
		if f, ok := v.AsFloat(); ok {
			return f
		}
	}
	return def
}

func (p *Properties) String(name string, def string) string {
	if v, ok := p.values[name]; ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return def
}

// UnmarshalYAML decodes a mapping of scalars and sequences.
func (p *Properties) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	p.Clear()
	for name, x := range raw {
		v, err := FromInterface(x)
		if err != nil {
			return fmt.Errorf("props: property %q: %w", name, err)
		}
		p.Set(name, v)
	}
	return nil
}

// MarshalYAML encodes the properties as an ordered mapping.
func (p *Properties) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(p.names))
	for _, n := range p.names {
		out = append(out, yaml.MapItem{Key: n, Value: p.values[n].Interface()})
	}
	return out, nil
}

func own(v Value) Value {
	if v.kind != KindList {
		return v
	}
	items := make([]Value, len(v.list))
	for i, it := range v.list {
		items[i] = own(it)
	}
	return Value{kind: KindList, list: items}
}
