package scene

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Properties is a typed view over one node of the scene description tree.
// Every object in a scene file is a bag of properties plus a "type" tag;
// the loader hands these to the registered constructors.
type Properties map[string]any

// Type returns the node's type tag
func (p Properties) Type() (string, error) {
	tag, ok := p["type"].(string)
	if !ok {
		return "", fmt.Errorf("missing required \"type\" tag")
	}
	return tag, nil
}

// Has reports whether a property is present
func (p Properties) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Float reads a float property with a default
func (p Properties) Float(name string, def float64) (float64, error) {
	value, ok := p[name]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(value)
	if !ok {
		return 0, fmt.Errorf("property %q: expected a number, got %T", name, value)
	}
	return f, nil
}

// Int reads an integer property with a default
func (p Properties) Int(name string, def int) (int, error) {
	value, ok := p[name]
	if !ok {
		return def, nil
	}
	switch v := value.(type) {
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("property %q: expected an integer, got %T", name, value)
	}
}

// Bool reads a boolean property with a default
func (p Properties) Bool(name string, def bool) (bool, error) {
	value, ok := p[name]
	if !ok {
		return def, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("property %q: expected a boolean, got %T", name, value)
	}
	return b, nil
}

// String reads a string property with a default
func (p Properties) String(name string, def string) (string, error) {
	value, ok := p[name]
	if !ok {
		return def, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("property %q: expected a string, got %T", name, value)
	}
	return s, nil
}

// RequiredString reads a string property that must be present
func (p Properties) RequiredString(name string) (string, error) {
	if !p.Has(name) {
		return "", fmt.Errorf("missing required property %q", name)
	}
	return p.String(name, "")
}

// Vec3 reads a three-component property with a default. A single number is
// splatted across all components.
func (p Properties) Vec3(name string, def core.Vec3) (core.Vec3, error) {
	value, ok := p[name]
	if !ok {
		return def, nil
	}
	return toVec3(name, value)
}

// RequiredVec3 reads a three-component property that must be present
func (p Properties) RequiredVec3(name string) (core.Vec3, error) {
	if !p.Has(name) {
		return core.Vec3{}, fmt.Errorf("missing required property %q", name)
	}
	return p.Vec3(name, core.Vec3{})
}

// Vec2 reads a two-component property with a default. A single number is
// splatted across both components.
func (p Properties) Vec2(name string, def core.Vec2) (core.Vec2, error) {
	value, ok := p[name]
	if !ok {
		return def, nil
	}
	if f, ok := toFloat(value); ok {
		return core.NewVec2(f, f), nil
	}
	items, ok := value.([]any)
	if !ok || len(items) != 2 {
		return core.Vec2{}, fmt.Errorf("property %q: expected two numbers", name)
	}
	x, okX := toFloat(items[0])
	y, okY := toFloat(items[1])
	if !okX || !okY {
		return core.Vec2{}, fmt.Errorf("property %q: expected two numbers", name)
	}
	return core.NewVec2(x, y), nil
}

// Child returns a nested object property, or nil when absent
func (p Properties) Child(name string) (Properties, error) {
	value, ok := p[name]
	if !ok {
		return nil, nil
	}
	child, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("property %q: expected an object, got %T", name, value)
	}
	return Properties(child), nil
}

// Children returns a list-of-objects property, empty when absent
func (p Properties) Children(name string) ([]Properties, error) {
	value, ok := p[name]
	if !ok {
		return nil, nil
	}
	switch items := value.(type) {
	case []map[string]any: // decoded arrays of tables
		result := make([]Properties, 0, len(items))
		for _, item := range items {
			result = append(result, Properties(item))
		}
		return result, nil
	case []any:
		result := make([]Properties, 0, len(items))
		for i, item := range items {
			child, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q[%d]: expected an object, got %T", name, i, item)
			}
			result = append(result, Properties(child))
		}
		return result, nil
	case map[string]any: // a single table in place of a one-element list
		return []Properties{Properties(items)}, nil
	default:
		return nil, fmt.Errorf("property %q: expected a list of objects, got %T", name, value)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toVec3(name string, value any) (core.Vec3, error) {
	if f, ok := toFloat(value); ok {
		return core.NewVec3(f, f, f), nil
	}
	items, ok := value.([]any)
	if !ok || len(items) != 3 {
		return core.Vec3{}, fmt.Errorf("property %q: expected three numbers", name)
	}
	x, okX := toFloat(items[0])
	y, okY := toFloat(items[1])
	z, okZ := toFloat(items[2])
	if !okX || !okY || !okZ {
		return core.Vec3{}, fmt.Errorf("property %q: expected three numbers", name)
	}
	return core.NewVec3(x, y, z), nil
}
