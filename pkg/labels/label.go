package labels

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Label is a single label definition, either as it exists on a repository
// or as a desired state source defines it.
type Label struct {
	Name        string `json:"name" yaml:"name"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

var colorRegex = regexp.MustCompile(`^[0-9a-f]{6}$`)

// NormalizeColor lowercases a hex color and strips an optional leading '#'.
// The API stores colors as bare lowercase hex; configuration files often
// carry the '#' form.
func NormalizeColor(color string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(color), "#"))
}

// ValidColor reports whether color normalizes to six hex digits.
func ValidColor(color string) bool {
	return colorRegex.MatchString(NormalizeColor(color))
}

// Normalize returns a copy of the label with its color in canonical form.
func (l Label) Normalize() Label {
	l.Color = NormalizeColor(l.Color)
	return l
}

// Equal reports whether two labels describe the same state. Names are
// compared case-sensitively; colors are compared in canonical form.
func (l Label) Equal(other Label) bool {
	return l.Name == other.Name &&
		NormalizeColor(l.Color) == NormalizeColor(other.Color) &&
		l.Description == other.Description
}

// Validate checks that the label can be sent to the API.
func (l Label) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("label name cannot be empty")
	}
	if !ValidColor(l.Color) {
		return fmt.Errorf("label %q has invalid color %q, expected six hex digits", l.Name, l.Color)
	}
	return nil
}

// Set is a collection of labels unique by name.
type Set map[string]Label

// NewSet builds a set from labels. Later entries replace earlier ones with
// the same name.
func NewSet(ls ...Label) Set {
	s := make(Set, len(ls))
	for _, l := range ls {
		s[l.Name] = l.Normalize()
	}
	return s
}

// Add inserts or replaces a label.
func (s Set) Add(l Label) {
	s[l.Name] = l.Normalize()
}

// Get looks up a label by exact name.
func (s Set) Get(name string) (Label, bool) {
	l, ok := s[name]
	return l, ok
}

// Contains reports whether a label with the exact name exists.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the label names in lexicographic order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns the labels ordered by name.
func (s Set) Sorted() []Label {
	out := make([]Label, 0, len(s))
	for _, name := range s.Names() {
		out = append(out, s[name])
	}
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, l := range s {
		out[name] = l
	}
	return out
}

// Equal reports whether both sets contain equal labels under the same names.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for name, l := range s {
		o, ok := other[name]
		if !ok || !l.Equal(o) {
			return false
		}
	}
	return true
}

// Validate checks every label in the set.
func (s Set) Validate() error {
	for _, name := range s.Names() {
		if err := s[name].Validate(); err != nil {
			return err
		}
	}
	return nil
}
