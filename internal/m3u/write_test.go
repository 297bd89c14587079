package m3u

import (
	"strings"
	"testing"

	"playlistforge/internal/model"
)

func TestRenderMeta_RoundTrip(t *testing.T) {
	raw := `#EXTINF:-1 tvg-id="bbc1" tvg-logo="http://e/l.png" group-title="News",BBC One`
	doc, err := Parse("p", raw+"\nhttp://e/bbc\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := RenderMeta(doc.Entries[0]); got != raw {
		t.Fatalf("rendered=%q\nwant=%q", got, raw)
	}
}

func TestRenderMeta_DefaultDuration(t *testing.T) {
	e := model.Entry{DisplayName: "X", Locator: "http://e/x"}
	if got := RenderMeta(e); got != "#EXTINF:-1,X" {
		t.Fatalf("rendered=%q", got)
	}
}

func TestWrite(t *testing.T) {
	entries := []model.Entry{
		{DisplayName: "One", Duration: "-1", Attrs: []model.Attr{{Key: "group-title", Value: "A"}}, Locator: "http://e/1"},
		{DisplayName: "Two", Duration: "-1", Locator: "http://e/2"},
	}

	var sb strings.Builder
	records, bytes, err := Write(&sb, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records != 2 {
		t.Fatalf("records=%d, want=2", records)
	}
	want := "#EXTM3U\n" +
		"#EXTINF:-1 group-title=\"A\",One\nhttp://e/1\n" +
		"#EXTINF:-1,Two\nhttp://e/2\n"
	if sb.String() != want {
		t.Fatalf("output=%q\nwant=%q", sb.String(), want)
	}
	if bytes != int64(len(want)) {
		t.Fatalf("bytes=%d, want=%d", bytes, len(want))
	}

	// Output must parse back to the same records.
	doc, err := Parse("roundtrip", sb.String())
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	if len(doc.Entries) != 2 || doc.Entries[0].DisplayName != "One" || doc.Entries[1].Locator != "http://e/2" {
		t.Fatalf("reparsed=%+v", doc.Entries)
	}
}
