package model

// ParseStats accounts for one parsed source. Malformed records are skipped,
// never fatal; they only show up here.
type ParseStats struct {
	Source    string `json:"source"`
	Records   int    `json:"records"`
	Malformed int    `json:"malformed"`
}

// FilterStats accounts for the group filter/orderer pass.
type FilterStats struct {
	Included int `json:"included"`
	Excluded int `json:"excluded"`

	// PolicyMisses counts entries whose group had no policy row at all
	// (excluded by the closed-world default).
	PolicyMisses int `json:"policy_misses"`

	// Renamed counts entries relabeled by a group rename.
	Renamed int `json:"renamed"`

	IncludedByGroup map[string]int `json:"included_by_group"`
	ExcludedByGroup map[string]int `json:"excluded_by_group"`
}

// OverrideStats accounts for override resolution. All outcomes are counts,
// never errors.
type OverrideStats struct {
	Applied          int `json:"applied"`
	UnresolvedSource int `json:"unresolved_source"`
	UnresolvedTarget int `json:"unresolved_target"`

	// Restored counts source slots whose group was filtered out and that were
	// reintroduced to carry their replacement.
	Restored int `json:"restored"`
}

// RewriteStats accounts for one credential set's rewrite pass.
type RewriteStats struct {
	Label             string `json:"label"`
	LocatorsRewritten int    `json:"locators_rewritten"`
	TokensReplaced    int    `json:"tokens_replaced"`
	Records           int    `json:"records"`
	Bytes             int64  `json:"bytes"`

	// Err is set when this set's output failed; other sets still run.
	Err string `json:"err,omitempty"`
}
