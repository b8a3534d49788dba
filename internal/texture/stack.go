package texture

import "customtex/internal/variant"

// Stack is the ordered list of active variants of a scene. Later entries
// take priority.
type Stack struct {
	ids []variant.ID
}

// NewStack returns a stack holding only the base variant.
func NewStack() *Stack {
	return &Stack{ids: []variant.ID{variant.Base}}
}

// IDs returns a copy of the stack, lowest priority first.
func (s *Stack) IDs() []variant.ID {
	return append([]variant.ID(nil), s.ids...)
}

func (s *Stack) Len() int { return len(s.ids) }

// Add moves each id to the top, appending ids not yet present.
func (s *Stack) Add(ids ...variant.ID) {
	s.Remove(ids...)
	for _, id := range ids {
		if !containsID(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Remove drops every occurrence of ids.
func (s *Stack) Remove(ids ...variant.ID) {
	kept := s.ids[:0]
	for _, cur := range s.ids {
		if !containsID(ids, cur) {
			kept = append(kept, cur)
		}
	}
	s.ids = kept
}

// Set replaces the whole stack.
func (s *Stack) Set(ids ...variant.ID) {
	s.ids = append(s.ids[:0], ids...)
}

// Reset returns the stack to the base variant only.
func (s *Stack) Reset() {
	s.ids = append(s.ids[:0], variant.Base)
}

func containsID(ids []variant.ID, id variant.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Op is a variant stack edit carried by a mixtape event.
type Op int

const (
	OpSet Op = iota
	OpAdd
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}
	return "set"
}

// Apply runs op on the stack.
func (s *Stack) Apply(op Op, ids []variant.ID) {
	switch op {
	case OpAdd:
		s.Add(ids...)
	case OpRemove:
		s.Remove(ids...)
	default:
		s.Set(ids...)
	}
}
