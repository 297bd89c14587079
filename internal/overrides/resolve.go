package overrides

import (
	"playlistforge/internal/model"
)

// Index is the pair of lookup tables override resolution uses, built once
// from the combined pre-filter entry set and never mutated afterwards so
// resolution stays order-independent.
type Index struct {
	byID   map[model.Identifier]model.Entry
	byName map[string]model.Entry
}

// NewIndex indexes entries by (group, display name) and by display name
// alone. First seen wins in both tables, which makes bare-name target
// selection deterministic when several groups share a name.
func NewIndex(entries []model.Entry) *Index {
	idx := &Index{
		byID:   make(map[model.Identifier]model.Entry, len(entries)),
		byName: make(map[string]model.Entry, len(entries)),
	}
	for _, e := range entries {
		if _, ok := idx.byID[e.ID()]; !ok {
			idx.byID[e.ID()] = e
		}
		if _, ok := idx.byName[e.DisplayName]; !ok {
			idx.byName[e.DisplayName] = e
		}
	}
	return idx
}

// Lookup resolves a target selector against the index.
func (idx *Index) Lookup(sel model.TargetSelector) (model.Entry, bool) {
	if sel.Exact {
		e, ok := idx.byID[model.Identifier{Group: sel.Group, Name: sel.Name}]
		return e, ok
	}
	e, ok := idx.byName[sel.Name]
	return e, ok
}

// Resolve applies override rules to the filtered entry sequence.
//
// Source identifiers resolve against the pre-filter index; a source whose
// slot was filtered out (its group excluded) is restored into the sequence
// to carry its replacement. The replacement takes the target's metadata and
// locator but keeps the source's group title and position, so a rule is
// inert on a second pass: the replaced slot no longer answers to the
// source's display name and the rule counts as unresolved-source, applied
// zero. Every rule outcome is a count; Resolve never fails.
//
// Restored entries are appended; callers re-sort with the policy comparator
// since resolution runs logically before final ordering.
func Resolve(filtered []model.Entry, rules []model.OverrideRule, idx *Index) ([]model.Entry, model.OverrideStats) {
	var stats model.OverrideStats
	if len(rules) == 0 {
		return filtered, stats
	}

	out := make([]model.Entry, len(filtered))
	copy(out, filtered)

	// Positions of each identifier in the filtered sequence. Duplicate slots
	// sharing a name are all replaced, each keeping its own position.
	pos := make(map[model.Identifier][]int, len(out))
	for i, e := range out {
		pos[e.ID()] = append(pos[e.ID()], i)
	}

	for _, rule := range rules {
		src, ok := idx.byID[rule.Source]
		if !ok {
			stats.UnresolvedSource++
			continue
		}
		target, ok := idx.Lookup(rule.Target)
		if !ok {
			stats.UnresolvedTarget++
			continue
		}

		if idxs, ok := pos[rule.Source]; ok {
			for _, i := range idxs {
				out[i] = hybrid(out[i], target)
			}
		} else {
			// Source slot was excluded by filtering; reintroduce it.
			out = append(out, hybrid(src, target))
			stats.Restored++
		}
		stats.Applied++
	}
	return out, stats
}

// hybrid is the replacement entry: the target's record relabeled into the
// source's group and pinned to the source's position.
func hybrid(src, target model.Entry) model.Entry {
	e := target.WithGroupTitle(src.GroupTitle)
	e.SourceOrder = src.SourceOrder
	e.Supplement = src.Supplement
	return e
}
