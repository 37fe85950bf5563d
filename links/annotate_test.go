package links

import (
	"testing"

	"github.com/justapithecus/adit/types"
)

func TestAnnotate_DefaultPatterns(t *testing.T) {
	text := "some output\n" +
		"Wrote screenshot to shot-1.png\n" +
		"more output\n" +
		"Wrote screenshot to shot-2.png\n" +
		"Wrote HTML dump to page.html\n"

	groups := Default().Annotate(text)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}

	shots := groups[0]
	if shots.Label != "Screenshots" {
		t.Errorf("group 0 label = %q", shots.Label)
	}
	if len(shots.Links) != 2 {
		t.Fatalf("expected 2 screenshot links, got %d", len(shots.Links))
	}
	if shots.Links[0].URL != "shot-1.png" || shots.Links[1].URL != "shot-2.png" {
		t.Errorf("screenshot links out of order: %+v", shots.Links)
	}

	dumps := groups[1]
	if dumps.Label != "HTML dumps" || len(dumps.Links) != 1 {
		t.Fatalf("unexpected dump group: %+v", dumps)
	}
	if dumps.Links[0].URL != "page.html" {
		t.Errorf("dump url = %q", dumps.Links[0].URL)
	}
}

func TestAnnotate_NoMatchesNoGroups(t *testing.T) {
	groups := Default().Annotate("nothing interesting here\n")
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %+v", groups)
	}
}

func TestAnnotate_TemplateSubstitution(t *testing.T) {
	a, err := NewAnnotator([]types.LinkPattern{
		{
			Pattern: `artifact (\w+)/(\w+)`,
			Label:   "Artifacts",
			URL:     "https://store.example.com/$1/$2",
			Title:   "$0",
			Icon:    "box",
			Color:   "#000000",
		},
	})
	if err != nil {
		t.Fatalf("new annotator: %v", err)
	}

	groups := a.Annotate("see artifact job42/trace for details")
	if len(groups) != 1 || len(groups[0].Links) != 1 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	link := groups[0].Links[0]
	if link.URL != "https://store.example.com/job42/trace" {
		t.Errorf("url = %q", link.URL)
	}
	if link.Title != "artifact job42/trace" {
		t.Errorf("title ($0) = %q", link.Title)
	}
	if link.Icon != "box" || link.Color != "#000000" {
		t.Errorf("icon/color not carried: %+v", link)
	}
}

func TestAnnotate_GroupOrderFollowsPatternOrder(t *testing.T) {
	a, err := NewAnnotator([]types.LinkPattern{
		{Pattern: `bbb (\S+)`, Label: "B", URL: "$1", Title: "$1"},
		{Pattern: `aaa (\S+)`, Label: "A", URL: "$1", Title: "$1"},
	})
	if err != nil {
		t.Fatalf("new annotator: %v", err)
	}

	groups := a.Annotate("aaa one\nbbb two\n")
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Label != "B" || groups[1].Label != "A" {
		t.Errorf("group order must follow pattern order, got %q then %q",
			groups[0].Label, groups[1].Label)
	}
}

func TestNewAnnotator_RejectsBadPattern(t *testing.T) {
	_, err := NewAnnotator([]types.LinkPattern{
		{Pattern: `(`, Label: "broken", URL: "$0", Title: "$0"},
	})
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestNewAnnotator_RejectsMissingLabel(t *testing.T) {
	_, err := NewAnnotator([]types.LinkPattern{
		{Pattern: `x`, URL: "$0", Title: "$0"},
	})
	if err == nil {
		t.Fatal("expected error for missing label")
	}
}

func TestParsePatterns_ReplacesWholeList(t *testing.T) {
	data := []byte(`[{"pattern":"custom (\\S+)","label":"Custom","url":"$1","title":"$1"}]`)
	patterns, err := ParsePatterns(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a, err := NewAnnotator(patterns)
	if err != nil {
		t.Fatalf("new annotator: %v", err)
	}

	// Default conventions no longer match: override is wholesale.
	groups := a.Annotate("Wrote screenshot to shot.png\ncustom thing\n")
	if len(groups) != 1 || groups[0].Label != "Custom" {
		t.Fatalf("override must replace defaults entirely, got %+v", groups)
	}
}
