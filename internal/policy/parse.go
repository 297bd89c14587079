package policy

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"playlistforge/internal/model"
	"gopkg.in/yaml.v3"
)

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Table is the validated group policy table. Row order is the first-seen
// order used to break rank ties.
type Table struct {
	Rows []model.GroupPolicy

	byTitle map[string]int // effective title -> index into Rows
}

// Lookup finds the policy row for an entry's (effective) group title.
func (t *Table) Lookup(groupTitle string) (model.GroupPolicy, bool) {
	i, ok := t.byTitle[groupTitle]
	if !ok {
		return model.GroupPolicy{}, false
	}
	return t.Rows[i], true
}

// Renames returns the original-title -> effective-title mapping for rows
// that configure a rename.
func (t *Table) Renames() map[string]string {
	out := make(map[string]string)
	for _, r := range t.Rows {
		if r.RenameTo != "" && r.RenameTo != r.GroupTitle {
			out[r.GroupTitle] = r.RenameTo
		}
	}
	return out
}

// rawRow mirrors one config row. The on-disk format predates this tool and
// stores exclude as the strings "true"/"false"; flexBool accepts both that
// and plain booleans.
type rawRow struct {
	GroupTitle    string   `yaml:"group_title"`
	Exclude       flexBool `yaml:"exclude"`
	Order         *int     `yaml:"order"`
	OverrideTitle string   `yaml:"override_title"`
	ChannelCount  int      `yaml:"channel_count"`
}

type flexBool bool

func (b *flexBool) UnmarshalYAML(node *yaml.Node) error {
	var v bool
	if err := node.Decode(&v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		*b = true
	case "false":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

// ParseTable parses and validates a group policy document (YAML or JSON).
// Structural problems are fatal: they surface before any playlist output is
// produced.
func ParseTable(source string, content string) (*Table, error) {
	var raw []rawRow
	if err := yamlDecodeStrict(content, &raw); err != nil {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "POLICY_PARSE_ERROR",
				Message: "group policy document failed to parse",
				Stage:   "load_policy",
				Source:  source,
			},
			Cause: err,
		}
	}
	if len(raw) == 0 {
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "POLICY_VALIDATE_ERROR",
				Message: "group policy table is empty",
				Stage:   "load_policy",
				Source:  source,
				Hint:    "expected: a list of {group_title, exclude, order} rows",
			},
		}
	}

	t := &Table{
		Rows:    make([]model.GroupPolicy, 0, len(raw)),
		byTitle: make(map[string]int, len(raw)),
	}
	seenRank := make(map[int]string)
	for i, r := range raw {
		title := strings.TrimSpace(r.GroupTitle)
		if title == "" {
			return nil, validateError(source, fmt.Sprintf("row %d: group_title must not be empty", i+1), "")
		}
		rank := model.RankUnset
		if r.Order != nil {
			rank = *r.Order
		}
		row := model.GroupPolicy{
			GroupTitle:   title,
			RenameTo:     strings.TrimSpace(r.OverrideTitle),
			Excluded:     bool(r.Exclude),
			Rank:         rank,
			ChannelCount: r.ChannelCount,
		}

		eff := row.EffectiveTitle()
		if _, dup := t.byTitle[eff]; dup {
			return nil, validateError(source, fmt.Sprintf("duplicate group title: %s", eff), "")
		}

		// Explicit ranks must be unique among included groups; rows without an
		// order share RankUnset and keep table order.
		if !row.Excluded && row.Rank != model.RankUnset {
			if prev, dup := seenRank[row.Rank]; dup {
				return nil, validateError(source,
					fmt.Sprintf("duplicate rank %d: %s and %s", row.Rank, prev, eff), "")
			}
			seenRank[row.Rank] = eff
		}

		t.byTitle[eff] = len(t.Rows)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func validateError(source, message, hint string) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    "POLICY_VALIDATE_ERROR",
			Message: message,
			Stage:   "load_policy",
			Source:  source,
			Hint:    hint,
		},
	}
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}

	// Reject multi-document YAML to keep behavior deterministic.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
