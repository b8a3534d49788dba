// Package scene resolves free-text names to the host's closed set of scene keys.
package scene

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Key identifies one host scene. The zero value is Invalid.
type Key string

// Invalid is returned when a name matches no known scene.
const Invalid Key = ""

func (k Key) String() string {
	if k == Invalid {
		return "Invalid"
	}
	return string(k)
}

// Valid reports whether k is not Invalid.
func (k Key) Valid() bool { return k != Invalid }

var suffixes = []string{"", "Custom", "Mixtape"}

var keySuffixRe = regexp.MustCompile(`^(.*?)(?:Custom|Mixtape)?$`)

// Catalog is the host's list of known scene keys.
type Catalog struct {
	keys  []Key
	lower map[string]Key
}

// NewCatalog builds a catalog from the host's scene key names.
// Duplicate names (case-insensitive) keep the first occurrence.
func NewCatalog(names ...string) *Catalog {
	c := &Catalog{lower: make(map[string]Key, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		lk := strings.ToLower(n)
		if _, dup := c.lower[lk]; dup {
			continue
		}
		c.lower[lk] = Key(n)
		c.keys = append(c.keys, Key(n))
	}
	return c
}

// Keys returns the catalog in host order.
func (c *Catalog) Keys() []Key {
	out := make([]Key, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of known keys.
func (c *Catalog) Len() int { return len(c.keys) }

// ToKeyOrInvalid tries name, name+"Custom" and name+"Mixtape" against the
// known keys, case-insensitively, in that order.
func (c *Catalog) ToKeyOrInvalid(name string) Key {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalid
	}
	for _, sfx := range suffixes {
		if k, ok := c.lower[strings.ToLower(name+sfx)]; ok {
			return k
		}
	}
	return Invalid
}

// FromKeyOrInvalid strips a trailing Custom/Mixtape suffix for display in
// user-facing choice lists.
func FromKeyOrInvalid(k Key) string {
	s := k.String()
	if m := keySuffixRe.FindStringSubmatch(s); m != nil && m[1] != "" {
		return m[1]
	}
	return s
}

// Suggest returns the closest display name to a name that failed to
// resolve, for "did you mean" hints. ok is false when nothing is close.
func (c *Catalog) Suggest(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || len(c.keys) == 0 {
		return "", false
	}
	best, bestDist := "", -1
	for _, k := range c.keys {
		display := FromKeyOrInvalid(k)
		d := levenshtein.ComputeDistance(name, strings.ToLower(display))
		if bestDist < 0 || d < bestDist {
			best, bestDist = display, d
		}
	}
	if bestDist > suggestLimit(len(name)) {
		return "", false
	}
	return best, true
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// DisplayNames returns FromKeyOrInvalid for each key, sorted.
func DisplayNames(keys []Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, FromKeyOrInvalid(k))
	}
	sort.Strings(out)
	return out
}

// SortKeys orders keys lexically, for deterministic iteration over maps.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
