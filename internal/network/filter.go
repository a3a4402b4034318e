package network

import "regexp"

// AdapterFilter decides whether an adapter snapshot should be considered
// by a filter chain. Implementations must be safe for concurrent use.
type AdapterFilter interface {
	Matches(s *AdapterSnapshot) bool
}

// KindFilter matches adapters whose kind is in the configured set.
type KindFilter struct {
	kinds []AdapterKind
}

func NewKindFilter(kinds ...AdapterKind) *KindFilter {
	return &KindFilter{kinds: kinds}
}

func (f *KindFilter) Matches(s *AdapterSnapshot) bool {
	for _, k := range f.kinds {
		if k.Equal(s.Kind) {
			return true
		}
	}
	return false
}

// NameRegexFilter matches adapters whose name matches pattern.
type NameRegexFilter struct {
	pattern *regexp.Regexp
}

func NewNameRegexFilter(pattern string) (*NameRegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &NameRegexFilter{pattern: re}, nil
}

func (f *NameRegexFilter) Matches(s *AdapterSnapshot) bool {
	return f.pattern.MatchString(s.Name)
}

// FilterChain composes include and exclude filters. Excludes are AND'd:
// any exclude match rejects the adapter. Includes are OR'd: any include
// match accepts the adapter, and an empty include list accepts everything
// that was not excluded. This asymmetry is deliberate — "only these
// adapters" is naturally a union of criteria, while "never these adapters"
// is naturally an intersection of veto conditions. An earlier AND-only
// composite filter conflated the two and could not express "exclude
// loopback AND exclude virtual, but include anything matching either of
// two name patterns" in one chain.
type FilterChain struct {
	Includes []AdapterFilter
	Excludes []AdapterFilter
}

func NewFilterChain() *FilterChain {
	return &FilterChain{}
}

func (c *FilterChain) AddInclude(f AdapterFilter) *FilterChain {
	c.Includes = append(c.Includes, f)
	return c
}

func (c *FilterChain) AddExclude(f AdapterFilter) *FilterChain {
	c.Excludes = append(c.Excludes, f)
	return c
}

func (c *FilterChain) Matches(s *AdapterSnapshot) bool {
	for _, f := range c.Excludes {
		if f.Matches(s) {
			return false
		}
	}
	if len(c.Includes) == 0 {
		return true
	}
	for _, f := range c.Includes {
		if f.Matches(s) {
			return true
		}
	}
	return false
}

// FilteredFetcher decorates an AddressFetcher, dropping any snapshot the
// chain rejects.
type FilteredFetcher struct {
	Inner  AddressFetcher
	Filter *FilterChain
}

func NewFilteredFetcher(inner AddressFetcher, filter *FilterChain) *FilteredFetcher {
	return &FilteredFetcher{Inner: inner, Filter: filter}
}

func (f *FilteredFetcher) Fetch() ([]*AdapterSnapshot, error) {
	snapshots, err := f.Inner.Fetch()
	if err != nil {
		return nil, err
	}
	out := make([]*AdapterSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if f.Filter.Matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}
