package model

// RankUnset orders a group after every explicitly ranked group. Groups
// sharing it keep their first-seen order from the policy table.
const RankUnset = int(^uint32(0) >> 1) // max int32

// GroupPolicy is one row of the group policy table.
type GroupPolicy struct {
	// GroupTitle is matched verbatim against Entry.GroupTitle.
	GroupTitle string

	// RenameTo, when non-empty, relabels matching entries into this group
	// before filtering. Policy lookups then use the new title.
	RenameTo string

	Excluded bool

	// Rank orders included groups in the output; lower comes first.
	// RankUnset means "after all ranked groups, in table order".
	Rank int

	// ChannelCount is informational, carried from the config for reporting.
	ChannelCount int
}

// EffectiveTitle is the group title entries carry after renaming.
func (g GroupPolicy) EffectiveTitle() string {
	if g.RenameTo != "" {
		return g.RenameTo
	}
	return g.GroupTitle
}

// OverrideRule replaces one named entry with another found in the combined
// pre-filter entry set.
type OverrideRule struct {
	Raw string

	// Source identifies the entry to replace. Its group is always the
	// override-eligible group the rule file is scoped to.
	Source Identifier

	// Target selects the replacement: Exact pairs search (group, name),
	// bare names search all groups first-seen.
	Target TargetSelector
}

// TargetSelector is either a bare display name or an exact (group, name)
// pair, written "name" or "group||name" in the rule file.
type TargetSelector struct {
	Group string
	Name  string
	Exact bool
}

func (t TargetSelector) String() string {
	if t.Exact {
		return t.Group + "||" + t.Name
	}
	return t.Name
}

// CredentialSet holds one target server's connection parameters. The output
// label is derived from the username and names the personalized output.
type CredentialSet struct {
	Host     string
	Username string
	Password string

	OutputLabel string
}
