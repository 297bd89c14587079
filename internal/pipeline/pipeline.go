package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"playlistforge/internal/m3u"
	"playlistforge/internal/model"
	"playlistforge/internal/overrides"
	"playlistforge/internal/policy"
	"playlistforge/internal/rewrite"
)

// Stage is one state of the coordinator's linear, skippable state machine.
type Stage int

const (
	StageParse Stage = iota
	StageFilter
	StageOverride
	StageRewrite
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageFilter:
		return "filter"
	case StageOverride:
		return "override"
	case StageRewrite:
		return "rewrite"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Artifact names under Options.WorkDir. Each stage leaves its output on
// disk so a later run can skip the stage and consume the artifact instead.
const (
	artifactMerged     = "merged_playlist.m3u"
	artifactSupplement = "merged_supplement.m3u"
	artifactFiltered   = "filtered_playlist.m3u"
	artifactResolved   = "filtered_playlist_final.m3u"
)

type StageError struct {
	Stage    Stage
	AppError model.AppError
	Cause    error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("stage %s: %s: %s: %v", e.Stage, e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// Source is one raw playlist handed in by a collaborator (file or fetch).
// Supplement marks the always-included source that bypasses closed-world
// filtering.
type Source struct {
	Name       string
	Text       string
	Supplement bool
}

// Artifact is the typed handle passed between stages: the entry sequence a
// stage produced (or reloaded) and where it lives on disk.
type Artifact struct {
	Stage   Stage
	Path    string
	Entries []model.Entry
}

type Options struct {
	SkipParse    bool
	SkipFilter   bool
	SkipOverride bool
	SkipRewrite  bool

	// WorkDir holds intermediate artifacts; OutDir the personalized outputs.
	WorkDir string
	OutDir  string

	// SourceGroup scopes override rule sources; empty means the default
	// override-eligible group.
	SourceGroup string
}

// Runner composes the parse, filter, override, and rewrite stages over
// validated configuration. Config tables are immutable for the duration of a
// run and passed in explicitly; the runner keeps no ambient state.
type Runner struct {
	Policy *policy.Table
	Rules  []model.OverrideRule
	Creds  []model.CredentialSet
	Opt    Options
}

// Report is the structured result of one run, suitable for logging or JSON
// serialization by a collaborator.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Parse    []model.ParseStats   `json:"parse,omitempty"`
	Filter   *model.FilterStats   `json:"filter,omitempty"`
	Override *model.OverrideStats `json:"override,omitempty"`
	Rewrites []model.RewriteStats `json:"rewrites,omitempty"`
	Skipped  []string             `json:"skipped,omitempty"`

	// FailedStage and Error are set when the run stopped early. Artifacts
	// written by earlier stages are left intact.
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Run drives the state machine to completion. It returns the report in both
// the success and the failure case; the error is the failing stage's error.
func (r *Runner) Run(ctx context.Context, sources []Source) (*Report, error) {
	rep := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	var (
		combined Artifact // pre-filter merged sequence (override index input)
		current  Artifact // the sequence flowing into the next stage
	)

	st := StageParse
	for st != StageDone {
		if err := ctx.Err(); err != nil {
			return r.fail(rep, st, stageErr(st, "CANCELED", "run canceled", err))
		}

		cur := st
		var err error
		switch st {
		case StageParse:
			combined, err = r.runParse(rep, sources)
			current = combined
			st = StageFilter
		case StageFilter:
			current, err = r.runFilter(rep, current)
			st = StageOverride
		case StageOverride:
			current, err = r.runOverride(rep, combined, current)
			st = StageRewrite
		case StageRewrite:
			err = r.runRewrite(rep, current)
			st = StageDone
		}
		if err != nil {
			var se *StageError
			if !errors.As(err, &se) {
				err = stageErr(cur, "INTERNAL_ERROR", "unexpected stage failure", err)
			}
			return r.fail(rep, cur, err)
		}
	}

	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

func (r *Runner) runParse(rep *Report, sources []Source) (Artifact, error) {
	if r.Opt.SkipParse {
		rep.Skipped = append(rep.Skipped, StageParse.String())
		return r.loadMergedArtifact()
	}
	if len(sources) == 0 {
		return Artifact{}, stageErr(StageParse, "NO_SOURCES", "no playlist sources supplied", nil)
	}

	var primary, supplements []*m3u.Document
	for _, src := range sources {
		doc, err := m3u.Parse(src.Name, src.Text)
		if err != nil {
			return Artifact{}, stageErr(StageParse, "PLAYLIST_PARSE_ERROR", fmt.Sprintf("source %s has no parseable records", src.Name), err)
		}
		rep.Parse = append(rep.Parse, doc.Stats)
		if src.Supplement {
			supplements = append(supplements, doc)
		} else {
			primary = append(primary, doc)
		}
	}

	merged := m3u.MergeSources(primary, supplements)
	art := Artifact{Stage: StageParse, Path: filepath.Join(r.Opt.WorkDir, artifactMerged), Entries: merged}

	if err := r.writeArtifact(art.Path, partition(merged, false)); err != nil {
		return Artifact{}, stageErr(StageParse, "ARTIFACT_WRITE_ERROR", "writing merged artifact failed", err)
	}
	supp := partition(merged, true)
	if len(supp) > 0 {
		if err := r.writeArtifact(filepath.Join(r.Opt.WorkDir, artifactSupplement), supp); err != nil {
			return Artifact{}, stageErr(StageParse, "ARTIFACT_WRITE_ERROR", "writing supplement artifact failed", err)
		}
	}
	return art, nil
}

func (r *Runner) runFilter(rep *Report, in Artifact) (Artifact, error) {
	if r.Opt.SkipFilter {
		rep.Skipped = append(rep.Skipped, StageFilter.String())
		return r.loadArtifact(StageFilter, artifactFiltered)
	}

	res := policy.Apply(in.Entries, r.Policy)
	rep.Filter = &res.Stats

	art := Artifact{Stage: StageFilter, Path: filepath.Join(r.Opt.WorkDir, artifactFiltered), Entries: res.Entries}
	if err := r.writeArtifact(art.Path, art.Entries); err != nil {
		return Artifact{}, stageErr(StageFilter, "ARTIFACT_WRITE_ERROR", "writing filtered artifact failed", err)
	}
	return art, nil
}

func (r *Runner) runOverride(rep *Report, combined, in Artifact) (Artifact, error) {
	if r.Opt.SkipOverride {
		rep.Skipped = append(rep.Skipped, StageOverride.String())
		return r.loadArtifact(StageOverride, artifactResolved)
	}

	// The index is built from the pre-filter combined set so rules can name
	// entries that filtering dropped. Renames are applied first: the filtered
	// sequence carries effective titles, and the index must agree with it or
	// a rule in a renamed group would replace and restore the same slot.
	renamed, _ := policy.Renamed(combined.Entries, r.Policy)
	idx := overrides.NewIndex(renamed)
	resolved, stats := overrides.Resolve(in.Entries, r.Rules, idx)
	rep.Override = &stats

	// Resolution runs logically before final ordering: restored slots join
	// the sequence, then the policy comparator orders everything once more.
	policy.Sort(resolved, r.Policy)

	art := Artifact{Stage: StageOverride, Path: filepath.Join(r.Opt.WorkDir, artifactResolved), Entries: resolved}
	if err := r.writeArtifact(art.Path, art.Entries); err != nil {
		return Artifact{}, stageErr(StageOverride, "ARTIFACT_WRITE_ERROR", "writing resolved artifact failed", err)
	}
	return art, nil
}

func (r *Runner) runRewrite(rep *Report, in Artifact) error {
	if r.Opt.SkipRewrite {
		rep.Skipped = append(rep.Skipped, StageRewrite.String())
		return nil
	}
	if len(r.Creds) == 0 {
		return stageErr(StageRewrite, "CREDENTIALS_VALIDATE_ERROR", "no credential sets configured", nil)
	}
	if err := os.MkdirAll(r.Opt.OutDir, 0o755); err != nil {
		return stageErr(StageRewrite, "OUTPUT_DIR_ERROR", "creating output directory failed", err)
	}

	rep.Rewrites = rewrite.RunAll(in.Entries, r.Creds, func(label string) (io.WriteCloser, error) {
		return os.Create(filepath.Join(r.Opt.OutDir, label+".m3u"))
	})
	return nil
}

func (r *Runner) fail(rep *Report, st Stage, err error) (*Report, error) {
	rep.FinishedAt = time.Now().UTC()
	rep.FailedStage = st.String()
	rep.Error = err.Error()
	return rep, err
}

// loadMergedArtifact reloads the parse artifact pair written by a previous
// run. The supplement file is optional; its entries are re-tagged on load.
func (r *Runner) loadMergedArtifact() (Artifact, error) {
	path := filepath.Join(r.Opt.WorkDir, artifactMerged)
	main, err := r.readArtifact(StageParse, path)
	if err != nil {
		return Artifact{}, err
	}

	suppPath := filepath.Join(r.Opt.WorkDir, artifactSupplement)
	if _, statErr := os.Stat(suppPath); statErr == nil {
		supp, err := r.readArtifact(StageParse, suppPath)
		if err != nil {
			return Artifact{}, err
		}
		combined := m3u.MergeSources(
			[]*m3u.Document{{Entries: main}},
			[]*m3u.Document{{Entries: supp}},
		)
		return Artifact{Stage: StageParse, Path: path, Entries: combined}, nil
	}
	return Artifact{Stage: StageParse, Path: path, Entries: main}, nil
}

func (r *Runner) loadArtifact(st Stage, name string) (Artifact, error) {
	path := filepath.Join(r.Opt.WorkDir, name)
	entries, err := r.readArtifact(st, path)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Stage: st, Path: path, Entries: entries}, nil
}

// readArtifact enforces the skip invariant: a skipped stage's output must
// already exist before the next stage may run.
func (r *Runner) readArtifact(st Stage, path string) ([]model.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stageErr(st, "ARTIFACT_MISSING",
			fmt.Sprintf("stage %s is skipped but its artifact %s is not available", st, filepath.Base(path)), err)
	}
	doc, err := m3u.Parse(path, string(data))
	if err != nil {
		return nil, stageErr(st, "ARTIFACT_INVALID",
			fmt.Sprintf("artifact %s is not a valid playlist", filepath.Base(path)), err)
	}
	return doc.Entries, nil
}

func (r *Runner) writeArtifact(path string, entries []model.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, _, werr := m3u.Write(f, entries)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}

func partition(entries []model.Entry, supplement bool) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Supplement == supplement {
			out = append(out, e)
		}
	}
	return out
}

func stageErr(st Stage, code, message string, cause error) error {
	return &StageError{
		Stage: st,
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   st.String(),
		},
		Cause: cause,
	}
}
