package compiler

import "regexp"

// StringSet supports both exact-match (case-insensitive) and regex-list
// filtering, the two filter shapes §3 allows for tags/operationIds/paths.
type StringSet struct {
	Exact []string
	Regex []string

	compiled []*regexp.Regexp
	exactSet map[string]bool
}

func (s *StringSet) prepare() {
	if s.exactSet != nil {
		return
	}
	s.exactSet = make(map[string]bool, len(s.Exact))
	for _, v := range s.Exact {
		s.exactSet[lower(v)] = true
	}
	for _, pattern := range s.Regex {
		if re, err := regexp.Compile(pattern); err == nil {
			s.compiled = append(s.compiled, re)
		}
	}
}

func (s *StringSet) Empty() bool {
	return len(s.Exact) == 0 && len(s.Regex) == 0
}

func (s *StringSet) Match(value string) bool {
	s.prepare()
	if s.exactSet[lower(value)] {
		return true
	}
	for _, re := range s.compiled {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func (s *StringSet) MatchAny(values []string) bool {
	for _, v := range values {
		if s.Match(v) {
			return true
		}
	}
	return false
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Filters is the per-service include/exclude configuration (§6.2's
// `filters` ServiceEntry field).
type Filters struct {
	IncludeTags  StringSet
	ExcludeTags  StringSet
	IncludeOps   StringSet
	ExcludeOps   StringSet
	IncludePaths StringSet
	ExcludePaths StringSet

	IncludeText string
	ExcludeText string

	includeTextRe *regexp.Regexp
	excludeTextRe *regexp.Regexp
}

func (f *Filters) prepareText() {
	if f.IncludeText != "" && f.includeTextRe == nil {
		f.includeTextRe, _ = regexp.Compile(f.IncludeText)
	}
	if f.ExcludeText != "" && f.excludeTextRe == nil {
		f.excludeTextRe, _ = regexp.Compile(f.ExcludeText)
	}
}

// allows reports whether an operation with the given tags, operationId,
// path, and combined summary+description text survives this filter set.
// Semantics (§3): within a dimension with any inclusion rule, at least one
// rule must match; exclusions always override inclusions.
func (f *Filters) allows(tags []string, operationID, path, text string) bool {
	f.prepareText()

	if f.ExcludeTags.MatchAny(tags) {
		return false
	}
	if f.ExcludeOps.Match(operationID) {
		return false
	}
	if f.ExcludePaths.Match(path) {
		return false
	}
	if f.excludeTextRe != nil && f.excludeTextRe.MatchString(text) {
		return false
	}

	if !f.IncludeTags.Empty() && !f.IncludeTags.MatchAny(tags) {
		return false
	}
	if !f.IncludeOps.Empty() && !f.IncludeOps.Match(operationID) {
		return false
	}
	if !f.IncludePaths.Empty() && !f.IncludePaths.Match(path) {
		return false
	}
	if f.includeTextRe != nil && !f.includeTextRe.MatchString(text) {
		return false
	}

	return true
}
