// internal/discovery/linkfilter.go
package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
)

// Default relevance patterns, matched against the link path only.
const (
	DefaultIncludePattern = `(?i)(contact|get.*touch|reach|support|help)`
	DefaultExcludePattern = `(?i)blog`
)

// LinkFilter ranks outbound links by how likely they are to host a contact form.
// It is pure: no network access, no shared state.
type LinkFilter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
	scope   *SiteScope
}

// NewLinkFilter compiles the relevance patterns. An empty exclude pattern disables exclusion.
func NewLinkFilter(include, exclude string) (*LinkFilter, error) {
	inc, err := regexp.Compile(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	f := &LinkFilter{include: inc}
	if exclude != "" {
		if f.exclude, err = regexp.Compile(exclude); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
	}
	return f, nil
}

// DefaultLinkFilter returns a filter using the default patterns.
func DefaultLinkFilter() *LinkFilter {
	return &LinkFilter{
		include: regexp.MustCompile(DefaultIncludePattern),
		exclude: regexp.MustCompile(DefaultExcludePattern),
	}
}

// WithScope returns a copy of f that also drops links outside scope.
func (f *LinkFilter) WithScope(scope *SiteScope) *LinkFilter {
	c := *f
	c.scope = scope
	return &c
}

// Filter parses each link, resolving relative ones against base when base is
// non-nil, and keeps the http(s) links whose path is relevant and not excluded.
// The result has no duplicate hrefs and is sorted by href length, shortest first.
func (f *LinkFilter) Filter(base *url.URL, links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))

	for _, raw := range links {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if base != nil {
			u = base.ResolveReference(u)
		}
		// Drops mailto:, tel:, javascript: and anything relative that could not be resolved.
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		if !f.include.MatchString(u.Path) {
			continue
		}
		if f.exclude != nil && f.exclude.MatchString(u.Path) {
			continue
		}
		if f.scope != nil && !f.scope.Contains(u) {
			continue
		}

		href := u.String()
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		out = append(out, href)
	}

	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) < len(out[j]) })
	return out
}

// FilterContactLinks applies the default filter to absolute links.
func FilterContactLinks(links []string) []string {
	return DefaultLinkFilter().Filter(nil, links)
}

// CandidatePages returns the ranked contact links followed by the start URL
// itself, each appearing once.
func CandidatePages(startURL string, ranked []string) []string {
	out := make([]string, 0, len(ranked)+1)
	seen := make(map[string]struct{}, len(ranked)+1)
	for _, u := range append(append([]string(nil), ranked...), startURL) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
