// Package links extracts grouped artifact links from log segments.
//
// An Annotator scans a text segment against an ordered list of regex
// patterns. All matches of one pattern form one LinkGroup; captured
// groups substitute into the pattern's URL and title templates. The
// default list covers the artifact-mention conventions of the test
// harness (screenshots, HTML dumps, journals, coverage, pixel
// references); a sibling link-patterns.json resource replaces the whole
// list when present.
package links

import (
	"fmt"
	"regexp"

	"github.com/justapithecus/adit/types"
)

// Annotator holds a compiled, ordered pattern list.
type Annotator struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	re   *regexp.Regexp
	spec types.LinkPattern
}

// NewAnnotator compiles the given pattern list.
func NewAnnotator(patterns []types.LinkPattern) (*Annotator, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Label == "" {
			return nil, fmt.Errorf("link pattern %q has no label", p.Pattern)
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("link pattern %q: %w", p.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, spec: p})
	}
	return &Annotator{patterns: compiled}, nil
}

// Annotate scans text and returns one LinkGroup per pattern with at
// least one match, in pattern-list order.
func (a *Annotator) Annotate(text string) []types.LinkGroup {
	var groups []types.LinkGroup

	for _, p := range a.patterns {
		matches := p.re.FindAllStringSubmatchIndex(text, -1)
		if len(matches) == 0 {
			continue
		}

		group := types.LinkGroup{Label: p.spec.Label}
		for _, match := range matches {
			group.Links = append(group.Links, types.Link{
				URL:   expand(p.re, p.spec.URL, text, match),
				Title: expand(p.re, p.spec.Title, text, match),
				Icon:  p.spec.Icon,
				Color: p.spec.Color,
			})
		}
		groups = append(groups, group)
	}

	return groups
}

// expand substitutes $0 (full match) and $1.. (captured groups) from
// match into the template.
func expand(re *regexp.Regexp, template, text string, match []int) string {
	return string(re.ExpandString(nil, template, text, match))
}
