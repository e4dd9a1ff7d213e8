package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSetExactMatchIsCaseInsensitive(t *testing.T) {
	s := StringSet{Exact: []string{"Pets"}}
	assert.True(t, s.Match("pets"))
	assert.True(t, s.Match("PETS"))
	assert.False(t, s.Match("users"))
}

func TestStringSetRegexMatch(t *testing.T) {
	s := StringSet{Regex: []string{"^get.*"}}
	assert.True(t, s.Match("getUser"))
	assert.False(t, s.Match("deletePet"))
}

func TestStringSetEmpty(t *testing.T) {
	assert.True(t, (&StringSet{}).Empty())
	assert.False(t, (&StringSet{Exact: []string{"a"}}).Empty())
}

func TestFiltersExclusionOverridesInclusion(t *testing.T) {
	f := &Filters{
		IncludeTags: StringSet{Exact: []string{"pets"}},
		ExcludeOps:  StringSet{Exact: []string{"deletePet"}},
	}
	assert.True(t, f.allows([]string{"pets"}, "listPets", "/pets", ""))
	assert.False(t, f.allows([]string{"pets"}, "deletePet", "/pets", ""))
}

func TestFiltersNoIncludeRulesAllowsEverything(t *testing.T) {
	f := &Filters{}
	assert.True(t, f.allows([]string{"anything"}, "anyOp", "/any", "any text"))
}

func TestFiltersIncludeRequiresAtLeastOneMatch(t *testing.T) {
	f := &Filters{IncludeTags: StringSet{Exact: []string{"pets"}}}
	assert.True(t, f.allows([]string{"pets", "other"}, "op", "/p", ""))
	assert.False(t, f.allows([]string{"users"}, "op", "/u", ""))
}

func TestFiltersTextRegex(t *testing.T) {
	f := &Filters{IncludeText: "deprecated"}
	assert.True(t, f.allows(nil, "op", "/p", "this op is deprecated"))
	assert.False(t, f.allows(nil, "op", "/p", "this op is stable"))

	f = &Filters{ExcludeText: "internal"}
	assert.False(t, f.allows(nil, "op", "/p", "internal use only"))
	assert.True(t, f.allows(nil, "op", "/p", "public"))
}
