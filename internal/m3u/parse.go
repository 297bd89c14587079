package m3u

import (
	"fmt"
	"strings"

	"playlistforge/internal/model"
)

const (
	header       = "#EXTM3U"
	recordMarker = "#EXTINF:"
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

// Document is the result of parsing one raw source.
type Document struct {
	Entries []model.Entry
	Stats   model.ParseStats
}

// Parse parses raw playlist text into an ordered entry sequence. One logical
// record is a metadata line followed by a locator line. Blank lines, the
// #EXTM3U header, and other comment lines are tolerated. Malformed records
// (metadata with no locator, or a locator with no preceding metadata) are
// skipped and counted.
//
// Parse is fatal only when the text contains no parseable record at all.
func Parse(source string, content string) (*Document, error) {
	s := stripUTF8BOM(content)
	if strings.TrimSpace(s) == "" {
		return nil, newParseError(source, 0, "", "PLAYLIST_PARSE_ERROR", "playlist is empty", "")
	}

	doc := &Document{Stats: model.ParseStats{Source: source}}

	lines := strings.Split(s, "\n")
	pendingMeta := ""
	for _, raw := range lines {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, recordMarker) {
			if pendingMeta != "" {
				// Metadata line with no locator after it.
				doc.Stats.Malformed++
			}
			pendingMeta = line
			continue
		}
		if strings.HasPrefix(line, "#") {
			// Header or unrelated directive; does not break a pending record.
			continue
		}

		// Bare locator line.
		if pendingMeta == "" {
			doc.Stats.Malformed++
			continue
		}
		e, ok := parseRecord(pendingMeta, line)
		pendingMeta = ""
		if !ok {
			doc.Stats.Malformed++
			continue
		}
		e.SourceOrder = len(doc.Entries)
		doc.Entries = append(doc.Entries, e)
		doc.Stats.Records++
	}
	if pendingMeta != "" {
		doc.Stats.Malformed++
	}

	if len(doc.Entries) == 0 {
		return nil, newParseError(source, 0, "", "PLAYLIST_PARSE_ERROR", "no parseable records in playlist", "expected: #EXTINF:... line followed by a locator line")
	}
	return doc, nil
}

// parseRecord splits a metadata line into duration, attributes, and display
// name, and pairs it with the locator. Attributes are scanned left to right;
// the display name is the free text after the comma that follows the last
// well-formed pair (or the first comma when the record carries none), so
// names may contain commas, quotes, and equals signs.
func parseRecord(meta string, locator string) (model.Entry, bool) {
	rest := strings.TrimPrefix(meta, recordMarker)

	// Duration runs to the first space or comma.
	end := strings.IndexAny(rest, " ,")
	if end < 0 {
		return model.Entry{}, false
	}
	duration := rest[:end]

	var attrs []model.Attr
	i := end
	if rest[i] == ' ' {
		var n int
		var ok bool
		attrs, n, ok = scanAttrs(rest[i:])
		if !ok {
			return model.Entry{}, false
		}
		i += n
	}
	// i points at the comma separating attributes from the name.
	name := rest[i+1:]

	e := model.Entry{
		DisplayName: strings.TrimSpace(name),
		Duration:    strings.TrimSpace(duration),
		Attrs:       attrs,
		Locator:     locator,
	}
	if g, ok := e.Attr("group-title"); ok {
		e.GroupTitle = g
	}
	return e, true
}

// scanAttrs scans a sequence of key="value" pairs and stops at the comma
// that introduces the display name, returning that comma's offset. Duplicate
// keys are kept in order; lookups are last-wins. Values may contain any byte
// except the closing double quote.
func scanAttrs(s string) ([]model.Attr, int, bool) {
	var attrs []model.Attr
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] == ',' {
			return attrs, i, true
		}
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, 0, false
		}
		key := strings.TrimSpace(s[i : i+eq])
		if key == "" || strings.ContainsAny(key, `,"`) {
			return nil, 0, false
		}
		i += eq + 1
		if i >= len(s) || s[i] != '"' {
			return nil, 0, false
		}
		i++
		end := strings.IndexByte(s[i:], '"')
		if end < 0 {
			return nil, 0, false
		}
		attrs = append(attrs, model.Attr{Key: key, Value: s[i : i+end]})
		i += end + 1
	}
	// Ran out of input without reaching the name separator.
	return nil, 0, false
}

// MergeSources concatenates parsed sources into one combined sequence.
// Entries from supplemental sources are tagged so filtering always keeps
// them; SourceOrder is renumbered across the merge to stay a global
// tie-break.
func MergeSources(primary []*Document, supplements []*Document) []model.Entry {
	n := 0
	for _, d := range primary {
		n += len(d.Entries)
	}
	for _, d := range supplements {
		n += len(d.Entries)
	}
	out := make([]model.Entry, 0, n)
	for _, d := range primary {
		for _, e := range d.Entries {
			e.SourceOrder = len(out)
			out = append(out, e)
		}
	}
	for _, d := range supplements {
		for _, e := range d.Entries {
			e.SourceOrder = len(out)
			e.Supplement = true
			out = append(out, e)
		}
	}
	return out
}

func newParseError(source string, line int, snippet, code, message, hint string) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "parse",
			Source:  source,
			Line:    line,
			Snippet: truncateSnippet(snippet, 200),
			Hint:    hint,
		},
	}
}

func stripUTF8BOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
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
