package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justapithecus/adit/fetch"
	"github.com/justapithecus/adit/types"
)

// PatternsResource is the sibling resource holding a pattern override.
const PatternsResource = "link-patterns.json"

// ParsePatterns decodes a pattern list from its JSON wire form.
func ParsePatterns(data []byte) ([]types.LinkPattern, error) {
	var patterns []types.LinkPattern
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("invalid link patterns: %w", err)
	}
	return patterns, nil
}

// FetchOverride returns an Annotator for the follow session: the
// link-patterns.json override when it exists, the defaults when the
// resource is absent. The override replaces the entire default list,
// never merges with it.
func FetchOverride(ctx context.Context, fetcher *fetch.Fetcher) (*Annotator, error) {
	text, err := fetcher.Fetch(ctx, PatternsResource, 0)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return Default(), nil
		}
		return nil, err
	}

	patterns, err := ParsePatterns([]byte(text))
	if err != nil {
		return nil, err
	}
	return NewAnnotator(patterns)
}
