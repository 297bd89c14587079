package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"playlistforge/internal/model"
	"playlistforge/internal/pipeline"
)

const playlistExt = ".m3u"

type server struct {
	opt Options
}

type playlistInfo struct {
	Label string `json:"label"`
	Bytes int64  `json:"bytes"`
}

// handleListPlaylists lists the output labels currently available for
// download, sorted for a stable response.
func (s server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.opt.OutDir)
	if err != nil {
		if os.IsNotExist(err) {
			WriteJSON(w, http.StatusOK, []playlistInfo{})
			return
		}
		writeErrorFromErr(w, err)
		return
	}

	out := make([]playlistInfo, 0, len(entries))
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), playlistExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, playlistInfo{
			Label: strings.TrimSuffix(de.Name(), playlistExt),
			Bytes: info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	WriteJSON(w, http.StatusOK, out)
}

func (s server) handleDownloadPlaylist(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]
	if err := validateLabel(label); err != nil {
		writeErrorFromErr(w, err)
		return
	}

	path := filepath.Join(s.opt.OutDir, label+playlistExt)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeErrorFromErr(w, apiNotFound("playlist not found: "+label))
			return
		}
		writeErrorFromErr(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/x-mpegurl; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDispositionAttachment(label+playlistExt))
	http.ServeContent(w, r, "", modTime(f), f)
	playlistsServedTotal.WithLabelValues(label).Inc()
}

// handleReport serves the latest run report verbatim. The report file is the
// contract between the one-shot runner and this server.
func (s server) handleReport(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(s.opt.ReportPath)
	if err != nil {
		if os.IsNotExist(err) {
			writeErrorFromErr(w, apiNotFound("no run report available"))
			return
		}
		writeErrorFromErr(w, err)
		return
	}

	var rep pipeline.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		writeErrorFromErr(w, fmt.Errorf("run report is not valid JSON: %w", err))
		return
	}
	if rep.Filter != nil {
		lastRunRecords.Set(float64(rep.Filter.Included))
	}
	WriteJSON(w, http.StatusOK, rep)
}

func validateLabel(label string) error {
	if label == "" {
		return requestError("INVALID_ARGUMENT", "label is required", "")
	}
	if len(label) > 200 {
		return requestError("INVALID_ARGUMENT", "label is too long", "max=200 bytes")
	}
	if strings.ContainsAny(label, "/\\\r\n\x00") || strings.Contains(label, "..") {
		return requestError("INVALID_ARGUMENT", "label must not contain path separators or control chars", "")
	}
	return nil
}

func apiNotFound(message string) error {
	return apiError(http.StatusNotFound, model.AppError{
		Code:    "NOT_FOUND",
		Message: message,
		Stage:   "serve",
	}, nil)
}

// contentDispositionAttachment builds an RFC 6266 + RFC 5987 header so
// UTF-8 labels survive the download prompt.
func contentDispositionAttachment(filename string) string {
	escaped := strings.ReplaceAll(filename, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", escaped, url.PathEscape(filename))
}

func modTime(f *os.File) time.Time {
	if info, err := f.Stat(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
