package util

import (
	"strings"
)

// ISet is a set of elements of type E.
type ISet[E any] interface {
	// Add adds the given element to the Set. If the element is already in the
	// set, no effect occurs.
	Add(element E)

	// AddAll adds all elements in s2 to the Set.
	AddAll(s2 ISet[E])

	// Has returns whether the given set has the specified element.
	Has(element E) bool

	// Len returns the number of elements in the set.
	Len() int

	// Elements returns the elements of the set. No particular order is
	// guaranteed.
	Elements() []E

	// Empty returns whether the set is empty.
	Empty() bool

	// StringOrdered is a string with the contents of the set, ordered
	// alphabetically.
	StringOrdered() string
}

// StringSet is a map[string]bool with methods added to fulfill ISet[string].
type StringSet map[string]bool

func NewStringSet(of ...map[string]bool) StringSet {
	s := StringSet{}
	for _, m := range of {
		for k := range m {
			s.Add(k)
		}
	}
	return s
}

// StringSetOf returns a StringSet containing every string in sl.
func StringSetOf(sl []string) StringSet {
	s := StringSet{}
	for i := range sl {
		s.Add(sl[i])
	}
	return s
}

func (s StringSet) Copy() StringSet {
	newS := make(StringSet, len(s))
	for k := range s {
		newS[k] = true
	}
	return newS
}

func (s StringSet) Has(value string) bool {
	_, has := s[value]
	return has
}

func (s StringSet) Add(value string) {
	s[value] = true
}

func (s StringSet) Len() int {
	return len(s)
}

func (s StringSet) Empty() bool {
	return s.Len() == 0
}

func (s StringSet) AddAll(s2 ISet[string]) {
	for _, element := range s2.Elements() {
		s.Add(element)
	}
}

// Absorb adds every element of o to s and returns whether s grew as a result.
func (s StringSet) Absorb(o StringSet) bool {
	var changed bool
	for k := range o {
		if !s.Has(k) {
			s.Add(k)
			changed = true
		}
	}
	return changed
}

// Elements returns the elements of s as a slice. No particular order is
// guaranteed nor should it be relied on; use Ordered for that.
func (s StringSet) Elements() []string {
	if s == nil {
		return nil
	}

	sl := make([]string, 0, len(s))
	for item := range s {
		sl = append(sl, item)
	}
	return sl
}

// Ordered returns the elements of s sorted alphabetically.
func (s StringSet) Ordered() []string {
	return OrderedKeys(s)
}

// StringOrdered shows the contents of the set. Items are guaranteed to be
// alphabetized.
func (s StringSet) StringOrdered() string {
	return "{" + strings.Join(s.Ordered(), ", ") + "}"
}

func (s StringSet) String() string {
	return s.StringOrdered()
}
