package m3u

import "testing"

func FuzzParse(f *testing.F) {
	seed := []string{
		"",
		"   \n",
		"#EXTM3U\n#EXTINF:-1 group-title=\"A\",One\nhttp://example.com/1\n",
		"#EXTINF:-1,No attrs\nhttp://example.com/2\n",
		"#EXTINF:-1 a=\"1\" a=\"2\",Dup keys\nhttp://example.com/3\n",
		"#EXTINF:-1 group-title=\"\U0001F1EC\U0001F1E7 UK\",Name, with comma\nhttp://example.com/4\n",
		"\uFEFF#EXTM3U\r\n#EXTINF:0 x=\"y\",crlf\r\nrtp://e/5\r\n",
		"#EXTINF:-1 group-title=\"A\",The \"Best\" Channel\nhttp://example.com/6\n",
		"http://orphan\n#EXTINF:-1 broken\n",
	}
	for _, s := range seed {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, content string) {
		doc, err := Parse("fuzz", content)
		if err != nil {
			return
		}

		if len(doc.Entries) == 0 {
			t.Fatalf("entries empty on nil error")
		}
		if doc.Stats.Records != len(doc.Entries) {
			t.Fatalf("records=%d, entries=%d", doc.Stats.Records, len(doc.Entries))
		}
		for i, e := range doc.Entries {
			if e.SourceOrder != i {
				t.Fatalf("entry %d: source order=%d", i, e.SourceOrder)
			}
			if e.Locator == "" {
				t.Fatalf("entry %d: empty locator", i)
			}
			if g, ok := e.Attr("group-title"); ok && g != e.GroupTitle {
				t.Fatalf("entry %d: group mismatch %q vs %q", i, g, e.GroupTitle)
			}
		}
	})
}
