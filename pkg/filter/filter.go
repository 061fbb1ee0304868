package filter

import (
	"regexp"

	"github.com/osmcode/mpoly/pkg/osm"
)

// StringMatcher is the key_matcher / value_matcher primitive from spec.md
// §4.4: a predicate over a single string.
type StringMatcher interface {
	Match(s string) bool
}

type anyStringMatcher struct{}

func (anyStringMatcher) Match(string) bool { return true }

// AnyString matches every string.
func AnyString() StringMatcher { return anyStringMatcher{} }

type noStringMatcher struct{}

func (noStringMatcher) Match(string) bool { return false }

// NoString matches no string.
func NoString() StringMatcher { return noStringMatcher{} }

type exactStringMatcher struct{ want string }

func (m exactStringMatcher) Match(s string) bool { return s == m.want }

// Exact matches the string equal to want.
func Exact(want string) StringMatcher { return exactStringMatcher{want: want} }

type regexpStringMatcher struct{ re *regexp.Regexp }

func (m regexpStringMatcher) Match(s string) bool { return m.re.MatchString(s) }

// Pattern compiles a regular expression matcher. No library in the
// retrieval pack offers string/glob matching for this niche need, so this
// one matcher is built on the standard library's regexp (see DESIGN.md).
func Pattern(expr string) (StringMatcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return regexpStringMatcher{re: re}, nil
}

// TagMatcher is the top-level predicate over a whole tag sequence
// (spec.md §4.4): the contract Filter, MultipolygonManager, and the
// config package all share.
type TagMatcher interface {
	Match(tags osm.TagList) bool
}

type alwaysTrue struct{}

func (alwaysTrue) Match(osm.TagList) bool { return true }

// AlwaysTrue is the default filter: every object qualifies.
func AlwaysTrue() TagMatcher { return alwaysTrue{} }

type alwaysFalse struct{}

func (alwaysFalse) Match(osm.TagList) bool { return false }

// AlwaysFalse rejects every object.
func AlwaysFalse() TagMatcher { return alwaysFalse{} }

// keyed is the tag-list matcher from spec.md §4.4: it returns true if any
// tag satisfies key_matcher(key) ∧ (value_matcher(value) ⊕ invert).
type keyed struct {
	key    StringMatcher
	value  StringMatcher
	invert bool
}

// Keyed builds a matcher that scans a tag list for any tag whose key
// matches keyMatcher and whose value matches valueMatcher, XORed with
// invert.
func Keyed(keyMatcher, valueMatcher StringMatcher, invert bool) TagMatcher {
	return keyed{key: keyMatcher, value: valueMatcher, invert: invert}
}

func (k keyed) Match(tags osm.TagList) bool {
	for _, t := range tags {
		if !k.key.Match(t.Key) {
			continue
		}
		if k.value.Match(t.Value) != k.invert {
			return true
		}
	}
	return false
}

// or combines matchers with logical OR, short-circuiting on the first
// match. Used to fold a configuration's list of keyed rules into one
// TagMatcher.
type or struct{ matchers []TagMatcher }

// Or returns a TagMatcher satisfied when any of matchers matches.
func Or(matchers ...TagMatcher) TagMatcher { return or{matchers: matchers} }

func (o or) Match(tags osm.TagList) bool {
	for _, m := range o.matchers {
		if m.Match(tags) {
			return true
		}
	}
	return false
}

// AreaFilter wraps a user-supplied TagMatcher with the relation-level
// type check spec.md §4.4 mandates for relations: type=multipolygon or
// type=boundary, with the remaining tags (minus "type") checked against
// the user matcher.
type AreaFilter struct {
	tags TagMatcher
}

// NewAreaFilter builds an AreaFilter applying tags to every relation's
// non-"type" tags once the multipolygon/boundary check passes.
func NewAreaFilter(tags TagMatcher) AreaFilter {
	if tags == nil {
		tags = AlwaysTrue()
	}
	return AreaFilter{tags: tags}
}

// MatchRelation reports whether rel qualifies for area assembly.
func (f AreaFilter) MatchRelation(rel *osm.Relation) bool {
	if !rel.IsArea() {
		return false
	}
	return f.tags.Match(withoutType(rel.Tags))
}

// MatchWay reports whether a closed way's tags qualify it for standalone
// area assembly (spec.md §4.5's closed-way call shape: "at least one tag
// satisfies the filter"). An untagged way never qualifies, even against
// AlwaysTrue, since there is no tag for it to satisfy.
func (f AreaFilter) MatchWay(way *osm.Way) bool {
	if len(way.Tags) == 0 {
		return false
	}
	return f.tags.Match(way.Tags)
}

func withoutType(tags osm.TagList) osm.TagList {
	out := make(osm.TagList, 0, len(tags))
	for _, t := range tags {
		if t.Key == "type" {
			continue
		}
		out = append(out, t)
	}
	return out
}
