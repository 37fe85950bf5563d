package types

// Link is one rendered artifact link extracted from a log segment.
type Link struct {
	URL   string `json:"url" msgpack:"url"`
	Title string `json:"title" msgpack:"title"`
	Icon  string `json:"icon,omitempty" msgpack:"icon,omitempty"`
	Color string `json:"color,omitempty" msgpack:"color,omitempty"`
}

// LinkGroup collects all matches of one pattern under its label.
// Groups are built fresh on every parse and never persisted.
type LinkGroup struct {
	Label string `json:"label" msgpack:"label"`
	Links []Link `json:"links" msgpack:"links"`
}

// LinkPattern describes one extraction rule. Patterns are applied in
// list order; URL and Title are templates where $0 substitutes the full
// match and $1.. the captured groups.
//
// This is also the wire shape of the optional link-patterns.json sibling
// resource, which wholesale-replaces the default pattern list.
type LinkPattern struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Label   string `json:"label" yaml:"label"`
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Icon    string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color   string `json:"color,omitempty" yaml:"color,omitempty"`
}
