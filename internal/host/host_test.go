package host

import "testing"

func TestEntityBool(t *testing.T) {
	e := Entity{Properties: map[string]any{
		"b":   true,
		"i":   0,
		"f":   1.0,
		"s":   " TRUE ",
		"bad": "maybe",
	}}
	cases := []struct {
		key      string
		want, ok bool
	}{
		{"b", true, true},
		{"i", false, true},
		{"f", true, true},
		{"s", true, true},
		{"bad", false, false},
		{"missing", false, false},
	}
	for _, tc := range cases {
		got, ok := e.Bool(tc.key)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Bool(%q) = %v, %v", tc.key, got, ok)
		}
	}
}

func TestEntityString(t *testing.T) {
	e := Entity{Properties: map[string]any{"path": "packs/night", "n": 2.5}}
	if s, ok := e.String("path"); !ok || s != "packs/night" {
		t.Fatalf("String(path) = %q", s)
	}
	if s, ok := e.String("n"); !ok || s != "2.5" {
		t.Fatalf("String(n) = %q", s)
	}
}
