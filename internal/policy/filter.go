package policy

import (
	"sort"

	"playlistforge/internal/model"
)

// Result is the filtered, ordered entry subsequence plus the accounting the
// run report carries.
type Result struct {
	Entries []model.Entry
	Stats   model.FilterStats
}

// Apply filters the combined entry sequence against the policy table and
// orders what survives.
//
// Filtering is closed-world: an entry whose group has no policy row is
// excluded and counted as a policy miss, not dropped silently. Entries from
// a supplemental source are always kept regardless of policy. Group renames
// are applied before lookup, so policy rows and output both see the
// effective title. Duplicates within a group pass through unmodified.
func Apply(entries []model.Entry, table *Table) Result {
	res := Result{
		Stats: model.FilterStats{
			IncludedByGroup: make(map[string]int),
			ExcludedByGroup: make(map[string]int),
		},
	}
	entries, res.Stats.Renamed = Renamed(entries, table)

	kept := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		row, known := table.Lookup(e.GroupTitle)
		switch {
		case e.Supplement:
			// Always-included supplement: ordering and overrides still apply.
		case !known:
			res.Stats.PolicyMisses++
			res.Stats.Excluded++
			res.Stats.ExcludedByGroup[e.GroupTitle]++
			continue
		case row.Excluded:
			res.Stats.Excluded++
			res.Stats.ExcludedByGroup[e.GroupTitle]++
			continue
		}

		kept = append(kept, e)
		res.Stats.Included++
		res.Stats.IncludedByGroup[e.GroupTitle]++
	}

	Sort(kept, table)
	res.Entries = kept
	return res
}

// Renamed returns the entry sequence with group renames applied and the
// number of entries relabeled. The input is not mutated. Every consumer of
// the combined set must see effective titles, so the same pass feeds both
// filtering and the override index.
func Renamed(entries []model.Entry, table *Table) ([]model.Entry, int) {
	renames := table.Renames()
	if len(renames) == 0 {
		return entries, 0
	}
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	n := 0
	for i, e := range out {
		if to, ok := renames[e.GroupTitle]; ok {
			out[i] = e.WithGroupTitle(to)
			n++
		}
	}
	return out, n
}

// Sort orders entries by (group rank, source order). Rank ties (groups
// without an explicit order) break by first-seen policy-table position;
// groups without a policy row at all (possible only for supplement entries)
// sort after every ranked group. The key triple is unique per entry, so the
// order is fully deterministic.
func Sort(entries []model.Entry, table *Table) {
	sort.Slice(entries, func(i, j int) bool {
		ri, pi := rankOf(entries[i], table)
		rj, pj := rankOf(entries[j], table)
		if ri != rj {
			return ri < rj
		}
		if pi != pj {
			return pi < pj
		}
		return entries[i].SourceOrder < entries[j].SourceOrder
	})
}

func rankOf(e model.Entry, table *Table) (rank, tablePos int) {
	i, ok := table.byTitle[e.GroupTitle]
	if !ok {
		return model.RankUnset, len(table.Rows)
	}
	return table.Rows[i].Rank, i
}
