package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options points the read-only API at the artifacts a pipeline run leaves
// behind.
type Options struct {
	// OutDir holds the personalized playlist outputs.
	OutDir string

	// ReportPath is the JSON run report written after the last run.
	ReportPath string
}

func NewRouter(opt Options) *mux.Router {
	h := server{opt: opt}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/playlists", h.handleListPlaylists).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{label}", h.handleDownloadPlaylist).Methods(http.MethodGet)
	r.HandleFunc("/report", h.handleReport).Methods(http.MethodGet)
	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	WriteText(w, http.StatusOK, "ok\n")
}
