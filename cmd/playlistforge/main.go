package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"playlistforge/internal/fetch"
	"playlistforge/internal/logging"
	"playlistforge/internal/model"
	"playlistforge/internal/overrides"
	"playlistforge/internal/pipeline"
	"playlistforge/internal/policy"
	"playlistforge/internal/rewrite"
)

// Configuration file names looked up under -config-dir.
const (
	policyFile      = "group_policy.yaml"
	overridesFile   = "overrides.conf"
	credentialsFile = "credentials.yaml"
	reportFile      = "report.json"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("empty value")
	}
	*s = append(*s, v)
	return nil
}

func main() {
	_ = godotenv.Load()

	var inputs, supplements stringList
	flag.Var(&inputs, "input", "primary playlist source (file path or http(s) URL); repeatable")
	flag.Var(&supplements, "supplement", "always-included supplemental source (file path or URL); repeatable")
	configDir := flag.String("config-dir", envOr("PLAYLISTFORGE_CONFIG_DIR", "config"), "directory with group_policy.yaml, overrides.conf, credentials.yaml")
	outDir := flag.String("out-dir", envOr("PLAYLISTFORGE_OUT_DIR", "out"), "directory for personalized playlist outputs")
	workDir := flag.String("work-dir", envOr("PLAYLISTFORGE_WORK_DIR", "work"), "directory for intermediate artifacts and the run report")
	sourceGroup := flag.String("source-group", "", "group whose entries may be named as override sources (default built in)")
	skipFetch := flag.Bool("skip-fetch", false, "skip source parsing; reuse the merged artifact in -work-dir")
	skipFilter := flag.Bool("skip-filter", false, "skip filtering; reuse the filtered artifact in -work-dir")
	skipOverride := flag.Bool("skip-override", false, "skip override resolution; reuse the resolved artifact in -work-dir")
	skipRewrite := flag.Bool("skip-rewrite", false, "skip credential rewriting; produce no outputs")
	fetchTimeout := flag.Duration("fetch-timeout", 30*time.Second, "per-URL fetch timeout")
	logLevel := flag.String("log-level", envOr("PLAYLISTFORGE_LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	logFormat := flag.String("log-format", envOr("PLAYLISTFORGE_LOG_FORMAT", "text"), "log format: text|json")
	flag.Parse()

	logging.Setup(*logLevel, *logFormat)

	ctx := context.Background()

	runner, err := buildRunner(*configDir, pipeline.Options{
		SkipParse:    *skipFetch,
		SkipFilter:   *skipFilter,
		SkipOverride: *skipOverride,
		SkipRewrite:  *skipRewrite,
		WorkDir:      *workDir,
		OutDir:       *outDir,
		SourceGroup:  *sourceGroup,
	})
	if err != nil {
		slog.Error("configuration invalid", "err", err)
		os.Exit(1)
	}

	sources, err := loadSources(ctx, inputs, supplements, *fetchTimeout, *skipFetch)
	if err != nil {
		slog.Error("loading sources failed", "err", err)
		os.Exit(1)
	}

	rep, runErr := runner.Run(ctx, sources)
	writeReport(*workDir, rep)
	printReport(rep)
	if runErr != nil {
		slog.Error("run failed", "stage", rep.FailedStage, "err", runErr)
		os.Exit(1)
	}
	for _, rw := range rep.Rewrites {
		if rw.Err != "" {
			slog.Warn("output failed", "label", rw.Label, "err", rw.Err)
		}
	}
}

// buildRunner loads and validates the three configuration inputs. Any
// configuration failure is fatal before a single record is written.
func buildRunner(configDir string, opt pipeline.Options) (*pipeline.Runner, error) {
	policyText, err := readConfig(configDir, policyFile)
	if err != nil {
		return nil, err
	}
	table, err := policy.ParseTable(policyFile, policyText)
	if err != nil {
		return nil, err
	}

	overrideText, err := readConfig(configDir, overridesFile)
	if err != nil {
		return nil, err
	}
	rules, err := overrides.ParseRules(overridesFile, overrideText, opt.SourceGroup)
	if err != nil {
		return nil, err
	}

	var creds []model.CredentialSet
	if !opt.SkipRewrite {
		credText, err := readConfig(configDir, credentialsFile)
		if err != nil {
			return nil, err
		}
		creds, err = rewrite.ParseCredentials(credentialsFile, credText)
		if err != nil {
			return nil, err
		}
	}

	return &pipeline.Runner{
		Policy: table,
		Rules:  rules,
		Creds:  creds,
		Opt:    opt,
	}, nil
}

func readConfig(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// loadSources materializes each input as raw text, fetching URLs and reading
// local paths. When parsing is skipped the sources are not needed at all.
func loadSources(ctx context.Context, inputs, supplements []string, timeout time.Duration, skip bool) ([]pipeline.Source, error) {
	if skip {
		return nil, nil
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one -input is required")
	}

	out := make([]pipeline.Source, 0, len(inputs)+len(supplements))
	for _, in := range inputs {
		text, err := loadOne(ctx, in, timeout)
		if err != nil {
			return nil, err
		}
		out = append(out, pipeline.Source{Name: in, Text: text})
	}
	for _, in := range supplements {
		text, err := loadOne(ctx, in, timeout)
		if err != nil {
			return nil, err
		}
		out = append(out, pipeline.Source{Name: in, Text: text, Supplement: true})
	}
	return out, nil
}

func loadOne(ctx context.Context, location string, timeout time.Duration) (string, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return fetch.FetchTextWithOptions(ctx, fetch.KindPlaylist, location, fetch.Options{Timeout: timeout})
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", location, err)
	}
	return string(data), nil
}

func writeReport(workDir string, rep *pipeline.Report) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		slog.Error("marshaling report failed", "err", err)
		return
	}
	path := filepath.Join(workDir, reportFile)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		slog.Error("creating work dir failed", "err", err)
		return
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		slog.Error("writing report failed", "path", path, "err", err)
	}
}

func printReport(rep *pipeline.Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
