package model

// Attr is one key="value" pair from a record's metadata line. Attribute
// order (including duplicate keys) is preserved so a record can be
// re-serialized deterministically.
type Attr struct {
	Key   string
	Value string
}

// Entry is one playable record: a metadata line plus a locator line.
type Entry struct {
	// DisplayName is the free text after the last attribute separator. It may
	// contain embedded punctuation or emoji and is not guaranteed unique.
	DisplayName string

	// GroupTitle is the value of the group-title attribute, matched verbatim
	// against the policy table.
	GroupTitle string

	// Attrs preserves source order; duplicate keys are kept as written.
	// Lookups are last-wins.
	Attrs []Attr

	// Locator is the connection URI. It may contain the DNS/USERNAME/PASSWORD
	// placeholder tokens that the rewriter substitutes per credential set.
	Locator string

	// Duration is the raw duration field from the metadata line ("-1" for
	// live streams). Kept verbatim.
	Duration string

	// SourceOrder is the stable position of the record across all merged
	// sources. Used as the tie-break within a group rank.
	SourceOrder int

	// Supplement marks entries from an always-included supplemental source.
	// They bypass closed-world exclusion but are still ordered and eligible
	// as override targets.
	Supplement bool
}

// Attr returns the last value written for key, matching last-wins parse
// semantics for duplicate keys.
func (e Entry) Attr(key string) (string, bool) {
	for i := len(e.Attrs) - 1; i >= 0; i-- {
		if e.Attrs[i].Key == key {
			return e.Attrs[i].Value, true
		}
	}
	return "", false
}

// ID returns the composite identifier used by override resolution.
func (e Entry) ID() Identifier {
	return Identifier{Group: e.GroupTitle, Name: e.DisplayName}
}

// WithGroupTitle returns a copy of e relabeled into group. Both the
// GroupTitle field and the group-title attribute are rewritten; the
// attribute is appended if the source record never carried one.
func (e Entry) WithGroupTitle(group string) Entry {
	out := e
	out.GroupTitle = group
	out.Attrs = make([]Attr, len(e.Attrs), len(e.Attrs)+1)
	copy(out.Attrs, e.Attrs)
	found := false
	for i := range out.Attrs {
		if out.Attrs[i].Key == "group-title" {
			out.Attrs[i].Value = group
			found = true
		}
	}
	if !found {
		out.Attrs = append(out.Attrs, Attr{Key: "group-title", Value: group})
	}
	return out
}

// Identifier is the composite (group, display name) key for an entry.
type Identifier struct {
	Group string
	Name  string
}
