package m3u

import (
	"bufio"
	"io"
	"strings"

	"playlistforge/internal/model"
)

// RenderMeta reconstructs an entry's metadata line. Attribute order and
// duplicates are emitted as parsed, so an unmodified entry round-trips
// deterministically.
func RenderMeta(e model.Entry) string {
	var b strings.Builder
	b.WriteString(recordMarker)
	if e.Duration != "" {
		b.WriteString(e.Duration)
	} else {
		b.WriteString("-1")
	}
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteByte('"')
	}
	b.WriteByte(',')
	b.WriteString(e.DisplayName)
	return b.String()
}

// Write emits the #EXTM3U header followed by each entry's record pair.
// It returns the record count and byte size written, which rewrite passes
// report per output.
func Write(w io.Writer, entries []model.Entry) (records int, bytes int64, err error) {
	bw := bufio.NewWriter(w)
	n, err := bw.WriteString(header + "\n")
	bytes += int64(n)
	if err != nil {
		return records, bytes, err
	}
	for _, e := range entries {
		n, err = bw.WriteString(RenderMeta(e))
		bytes += int64(n)
		if err != nil {
			return records, bytes, err
		}
		n, err = bw.WriteString("\n" + e.Locator + "\n")
		bytes += int64(n)
		if err != nil {
			return records, bytes, err
		}
		records++
	}
	return records, bytes, bw.Flush()
}
