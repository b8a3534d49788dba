package scenemod

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tidwall/gjson"

	"customtex/internal/logging"
)

// values reads typed fields out of gjson results. Every reader returns
// ok=false when the key is absent and logs a warning when it is present
// with the wrong shape.
type values struct {
	log *logging.Logger
}

func isInteger(v gjson.Result) bool {
	return v.Type == gjson.Number && !strings.ContainsAny(v.Raw, ".eE")
}

func (r values) bool(obj gjson.Result, key string) (*bool, bool) {
	v := obj.Get(key)
	if !v.Exists() {
		return nil, false
	}
	if !v.IsBool() {
		r.log.Warn("scene mod field should be a boolean", "key", key, "type", v.Type.String())
		return nil, false
	}
	b := v.Bool()
	return &b, true
}

func (r values) float(obj gjson.Result, key string) (*float32, bool) {
	v := obj.Get(key)
	if !v.Exists() {
		return nil, false
	}
	if v.Type != gjson.Number {
		r.log.Warn("scene mod field should be a number", "key", key, "type", v.Type.String())
		return nil, false
	}
	f := float32(v.Float())
	return &f, true
}

func (r values) str(obj gjson.Result, key string) (string, bool) {
	v := obj.Get(key)
	if !v.Exists() {
		return "", false
	}
	if v.Type != gjson.String {
		r.log.Warn("scene mod field should be a string", "key", key, "type", v.Type.String())
		return "", false
	}
	return v.String(), true
}

func (r values) strings(obj gjson.Result, key string) []string {
	v := obj.Get(key)
	if !v.Exists() {
		return nil
	}
	if !v.IsArray() {
		r.log.Warn("scene mod field should be an array", "key", key, "type", v.Type.String())
		return nil
	}
	var out []string
	for _, el := range v.Array() {
		if el.Type != gjson.String {
			r.log.Warn("scene mod array element should be a string", "key", key, "type", el.Type.String())
			continue
		}
		out = append(out, el.String())
	}
	return out
}

// components reads up to n numbers from an object (by names) or an array
// (by position). Missing or mistyped components stay unset.
func (r values) components(v gjson.Result, names string, channel bool) []float32 {
	out := make([]float32, len(names))
	for i := range out {
		var el gjson.Result
		if v.IsArray() {
			el = v.Get(strconv.Itoa(i))
		} else {
			el = v.Get(names[i : i+1])
		}
		out[i] = unset
		if !el.Exists() {
			continue
		}
		if el.Type != gjson.Number {
			r.log.Warn("scene mod component should be a number", "component", names[i:i+1], "type", el.Type.String())
			continue
		}
		out[i] = float32(el.Float())
		if channel && isInteger(el) {
			out[i] /= 255
		}
	}
	return out
}

func (r values) vecShape(obj gjson.Result, key string) (gjson.Result, bool) {
	v := obj.Get(key)
	if !v.Exists() {
		return v, false
	}
	if !v.IsObject() && !v.IsArray() {
		r.log.Warn("scene mod vector should be an object or array", "key", key, "type", v.Type.String())
		return v, false
	}
	return v, true
}

func (r values) vec2(obj gjson.Result, key string) (*mgl32.Vec2, bool) {
	v, ok := r.vecShape(obj, key)
	if !ok {
		return nil, false
	}
	c := r.components(v, "xy", false)
	return &mgl32.Vec2{c[0], c[1]}, true
}

func (r values) vec3(obj gjson.Result, key string) (*mgl32.Vec3, bool) {
	v, ok := r.vecShape(obj, key)
	if !ok {
		return nil, false
	}
	c := r.components(v, "xyz", false)
	return &mgl32.Vec3{c[0], c[1], c[2]}, true
}

// euler also accepts a bare number, which rotates about Y only.
func (r values) euler(obj gjson.Result, key string) (*mgl32.Vec3, bool) {
	if v := obj.Get(key); v.Type == gjson.Number {
		return &mgl32.Vec3{unset, float32(v.Float()), unset}, true
	}
	return r.vec3(obj, key)
}

// quat reads x, y, z, w in that order for both shapes.
func (r values) quat(obj gjson.Result, key string) (*mgl32.Quat, bool) {
	v, ok := r.vecShape(obj, key)
	if !ok {
		return nil, false
	}
	c := r.components(v, "xyzw", false)
	return &mgl32.Quat{W: c[3], V: mgl32.Vec3{c[0], c[1], c[2]}}, true
}

// color accepts {r,g,b,a}, an array or a "#RRGGBB[AA]" string. Integer
// channels are bytes, float channels are already normalised.
func (r values) color(obj gjson.Result, key string) (*mgl32.Vec4, bool) {
	v := obj.Get(key)
	if !v.Exists() {
		return nil, false
	}
	switch {
	case v.Type == gjson.String:
		c := r.hexColor(v.String())
		return &c, true
	case v.IsObject() || v.IsArray():
		c := r.components(v, "rgba", true)
		return &mgl32.Vec4{c[0], c[1], c[2], c[3]}, true
	}
	r.log.Warn("scene mod colour should be an object, array or string", "key", key, "type", v.Type.String())
	return nil, false
}

// hexColor parses two hex digits per channel from the left, up to four
// channels. Channels the string does not reach stay unset; malformed
// input leaves every channel unset.
func (r values) hexColor(s string) mgl32.Vec4 {
	c := mgl32.Vec4{unset, unset, unset, unset}
	hex := strings.TrimLeft(strings.TrimSpace(s), "#")
	if hex == "" {
		r.log.Warn("scene mod colour string could not be parsed", "value", s)
		return c
	}
	if _, err := strconv.ParseUint(hex, 16, 64); err != nil || len(hex) > 8 {
		r.log.Warn("scene mod colour string could not be parsed", "value", s)
		return c
	}
	for i := 0; i < 4 && 2*i+2 <= len(hex); i++ {
		b, _ := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		c[i] = float32(b) / 255
	}
	return c
}
