// Package contract decides whether a value produced by one vertex may flow
// into an input field of another. Both historical handle encodings are
// normalized here into one TypeSet representation at parse time, so nothing
// downstream ever sees the legacy form.
package contract

import (
	"fmt"
	"sort"
	"strings"
)

// AnyType is the sentinel accepted-type meaning "accepts everything".
const AnyType = "any"

// TextType is the canonical textual type. When a target field accepts only
// text and the source value is not textual, the resolver substitutes the
// built representation of the value.
const TextType = "Text"

// TypeSet is the normalized internal representation of the types declared on
// one side of an edge handle.
type TypeSet struct {
	types map[string]struct{}
	// legacyBases preserves the legacy base-class chain of a source handle.
	// Only consulted when plain intersection fails.
	legacyBases map[string]struct{}
}

// Normalize builds a TypeSet from a modern declared-types list. Empty and
// whitespace entries are dropped; an empty result set matches nothing.
func Normalize(types []string) TypeSet {
	ts := TypeSet{types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		ts.types[t] = struct{}{}
	}
	return ts
}

// NormalizeLegacy builds a TypeSet from the legacy handle encoding: a single
// declared type plus the base-class chain of the producing component.
func NormalizeLegacy(declared string, baseClasses []string) TypeSet {
	ts := Normalize([]string{declared})
	ts.legacyBases = make(map[string]struct{}, len(baseClasses))
	for _, b := range baseClasses {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		ts.legacyBases[b] = struct{}{}
	}
	return ts
}

// Contains reports whether t is a member of the set. The any sentinel is a
// member test like any other; callers wanting wildcard semantics use
// Compatible.
func (ts TypeSet) Contains(t string) bool {
	_, ok := ts.types[t]
	return ok
}

// IsEmpty reports whether the set declares no types at all.
func (ts TypeSet) IsEmpty() bool { return len(ts.types) == 0 }

// List returns the member types in sorted order, for error messages and
// document serialization.
func (ts TypeSet) List() []string {
	out := make([]string, 0, len(ts.types))
	for t := range ts.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// LegacyBases returns the preserved base-class chain, sorted, or nil when
// the handle used the modern encoding.
func (ts TypeSet) LegacyBases() []string {
	if ts.legacyBases == nil {
		return nil
	}
	out := make([]string, 0, len(ts.legacyBases))
	for b := range ts.legacyBases {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Compatible reports whether a source handle declaring out may connect to a
// target field declaring in. Holds when the target accepts the any sentinel,
// when the two declared sets intersect, or when a target-accepted type
// appears in the source's legacy base-class chain.
func Compatible(out, in TypeSet) bool {
	if _, ok := in.types[AnyType]; ok {
		return true
	}
	for t := range in.types {
		if _, ok := out.types[t]; ok {
			return true
		}
		if _, ok := out.legacyBases[t]; ok {
			return true
		}
	}
	return false
}

// WantsText reports whether the target field accepts only textual input, in
// which case the resolver passes the source's built representation instead
// of the raw value.
func WantsText(in TypeSet) bool {
	if len(in.types) != 1 {
		return false
	}
	_, ok := in.types[TextType]
	return ok
}

// IncompatibleEdgeError reports a declared-type mismatch on a single edge.
// It is raised once at graph construction and never retried.
type IncompatibleEdgeError struct {
	SourceID    string
	SourceType  string
	TargetID    string
	TargetType  string
	TargetField string
	OutputTypes []string
	InputTypes  []string
}

func (e *IncompatibleEdgeError) Error() string {
	return fmt.Sprintf(
		"incompatible edge %s(%s) -> %s(%s).%s: source declares %v, target accepts %v",
		e.SourceID, e.SourceType, e.TargetID, e.TargetType, e.TargetField,
		e.OutputTypes, e.InputTypes,
	)
}
