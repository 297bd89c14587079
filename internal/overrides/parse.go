package overrides

import (
	"fmt"
	"strings"

	"playlistforge/internal/model"
)

// DefaultSourceGroup is the override-eligible group rule files are scoped
// to: bare source names on the left-hand side of a rule belong to it.
const DefaultSourceGroup = "🇬🇧 TV Guide (UK)"

// pairSep splits an exact (group, name) target selector.
const pairSep = "||"

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

// ParseRules parses an override rule document: one "source = target" pair
// per line, where target is either a bare display name or an exact
// "group||name" pair. Blank lines and # comments are skipped. sourceGroup
// scopes the left-hand side; pass "" for the default.
//
// Unlike unresolved rules (counted at resolution time), a syntactically
// invalid line is a configuration error and fatal.
func ParseRules(source string, content string, sourceGroup string) ([]model.OverrideRule, error) {
	if sourceGroup == "" {
		sourceGroup = DefaultSourceGroup
	}

	lines := strings.Split(content, "\n")
	out := make([]model.OverrideRule, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		name, target, ok := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		target = strings.TrimSpace(target)
		if !ok || name == "" || target == "" {
			return nil, &ParseError{
				AppError: model.AppError{
					Code:    "OVERRIDE_PARSE_ERROR",
					Message: "invalid override rule line",
					Stage:   "load_overrides",
					Source:  source,
					Line:    i + 1,
					Snippet: truncateSnippet(raw, 200),
					Hint:    "expected: <source name> = <target name> or <source name> = <group||name>",
				},
			}
		}

		sel, err := parseTargetSelector(target)
		if err != nil {
			return nil, &ParseError{
				AppError: model.AppError{
					Code:    "OVERRIDE_PARSE_ERROR",
					Message: "invalid override target selector",
					Stage:   "load_overrides",
					Source:  source,
					Line:    i + 1,
					Snippet: truncateSnippet(raw, 200),
				},
				Cause: err,
			}
		}

		out = append(out, model.OverrideRule{
			Raw:    line,
			Source: model.Identifier{Group: sourceGroup, Name: name},
			Target: sel,
		})
	}
	return out, nil
}

func parseTargetSelector(s string) (model.TargetSelector, error) {
	if !strings.Contains(s, pairSep) {
		return model.TargetSelector{Name: s}, nil
	}
	group, name, _ := strings.Cut(s, pairSep)
	group = strings.TrimSpace(group)
	name = strings.TrimSpace(name)
	if group == "" || name == "" {
		return model.TargetSelector{}, fmt.Errorf("exact selector needs both group and name around %q", pairSep)
	}
	return model.TargetSelector{Group: group, Name: name, Exact: true}, nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
