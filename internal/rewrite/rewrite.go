package rewrite

import (
	"io"
	"strings"

	"playlistforge/internal/m3u"
	"playlistforge/internal/model"
)

// Placeholder tokens substituted in entry locators, in replacement order.
const (
	TokenHost     = "DNS"
	TokenUsername = "USERNAME"
	TokenPassword = "PASSWORD"
)

// Run rewrites one credential set's personalized playlist to w. The entry
// sequence is read-only: every pass over the same sequence produces the
// same record count and order, differing only in locator contents.
func Run(entries []model.Entry, set model.CredentialSet, w io.Writer) (model.RewriteStats, error) {
	stats := model.RewriteStats{Label: set.OutputLabel}

	personalized := make([]model.Entry, len(entries))
	for i, e := range entries {
		rewritten, tokens := substitute(e.Locator, set)
		if tokens > 0 {
			stats.LocatorsRewritten++
			stats.TokensReplaced += tokens
		}
		e.Locator = rewritten
		personalized[i] = e
	}

	records, bytes, err := m3u.Write(w, personalized)
	stats.Records = records
	stats.Bytes = bytes
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// OpenOutput opens the write target for one credential set's output label.
type OpenOutput func(label string) (io.WriteCloser, error)

// RunAll rewrites every credential set. A failure to write one output does
// not abort the rest: the failed set's stats carry the error and the next
// set still runs. Partial output from a failed pass must be treated as
// untrusted by the caller.
func RunAll(entries []model.Entry, sets []model.CredentialSet, open OpenOutput) []model.RewriteStats {
	out := make([]model.RewriteStats, 0, len(sets))
	for _, set := range sets {
		w, err := open(set.OutputLabel)
		if err != nil {
			out = append(out, model.RewriteStats{Label: set.OutputLabel, Err: err.Error()})
			continue
		}
		stats, err := Run(entries, set, w)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			stats.Err = err.Error()
		}
		out = append(out, stats)
	}
	return out
}

// substitute replaces the three placeholder tokens and counts the
// substitutions made. Counts are taken on the original locator, so a
// credential value that happens to contain a token's text is never
// double-counted.
func substitute(locator string, set model.CredentialSet) (string, int) {
	tokens := strings.Count(locator, TokenHost) +
		strings.Count(locator, TokenUsername) +
		strings.Count(locator, TokenPassword)
	if tokens == 0 {
		return locator, 0
	}
	s := strings.ReplaceAll(locator, TokenHost, set.Host)
	s = strings.ReplaceAll(s, TokenUsername, set.Username)
	s = strings.ReplaceAll(s, TokenPassword, set.Password)
	return s, tokens
}
