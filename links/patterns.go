package links

import "github.com/justapithecus/adit/types"

// DefaultPatterns returns the built-in artifact-mention pattern list.
// Order matters: groups render in this order.
func DefaultPatterns() []types.LinkPattern {
	return []types.LinkPattern{
		{
			Pattern: `Wrote screenshot to (\S+)`,
			Label:   "Screenshots",
			URL:     "$1",
			Title:   "$1",
			Icon:    "image",
			Color:   "#3B82F6",
		},
		{
			Pattern: `Wrote HTML dump to (\S+)`,
			Label:   "HTML dumps",
			URL:     "$1",
			Title:   "$1",
			Icon:    "code",
			Color:   "#8B5CF6",
		},
		{
			Pattern: `Journal extracted to (\S+)`,
			Label:   "Journals",
			URL:     "$1",
			Title:   "$1",
			Icon:    "file-text",
			Color:   "#6B7280",
		},
		{
			Pattern: `Wrote coverage report to (\S+)`,
			Label:   "Coverage",
			URL:     "$1",
			Title:   "coverage report",
			Icon:    "percent",
			Color:   "#10B981",
		},
		{
			Pattern: `New pixel test reference (\S+)`,
			Label:   "New pixel references",
			URL:     "$1",
			Title:   "$1",
			Icon:    "aperture",
			Color:   "#F59E0B",
		},
		{
			Pattern: `Differences in pixel test (\S+)`,
			Label:   "Pixel differences",
			URL:     "$1",
			Title:   "$1",
			Icon:    "eye",
			Color:   "#EF4444",
		},
	}
}

// Default returns an Annotator over DefaultPatterns. The defaults are
// maintained alongside their tests, so compilation cannot fail.
func Default() *Annotator {
	a, err := NewAnnotator(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return a
}
