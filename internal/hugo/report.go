package hugo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// BuildOutcome is the final result of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates outcomes for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// ManifestEntry describes one published post.
type ManifestEntry struct {
	Position    int       `json:"position"`
	Slug        string    `json:"slug"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Draft       bool      `json:"draft,omitempty"`
	Fingerprint string    `json:"fingerprint"`
}

// BuildReport captures what a generation run did.
type BuildReport struct {
	SchemaVersion   int
	Renderer        string
	Mode            string
	Start           time.Time
	End             time.Time
	Posts           int
	Assets          int
	OutputFiles     int
	OutputDigest    string
	Errors          []error
	Warnings        []error
	StageDurations  map[StageName]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Manifest        []ManifestEntry
	Outcome         BuildOutcome
}

func newBuildReport(renderer, mode string) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		Renderer:        renderer,
		Mode:            mode,
		Start:           time.Now(),
		StageDurations:  make(map[StageName]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
	}
}

func (r *BuildReport) recordStage(name StageName, dur time.Duration, se *StageError) {
	r.StageDurations[name] = dur
	sc := r.StageCounts[name]
	switch {
	case se == nil:
		sc.Success++
	case se.Kind == StageErrorWarning:
		sc.Warning++
		r.Warnings = append(r.Warnings, se)
	case se.Kind == StageErrorCanceled:
		sc.Canceled++
		r.Errors = append(r.Errors, se)
	default:
		sc.Fatal++
		r.Errors = append(r.Errors, se)
	}
	if se != nil {
		r.StageErrorKinds[name] = se.Kind
	}
	r.StageCounts[name] = sc
}

// AddWarning records a non-fatal problem found outside the stages, such as
// a skipped document.
func (r *BuildReport) AddWarning(err error) {
	r.Warnings = append(r.Warnings, err)
}

func (r *BuildReport) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Duration is End - Start.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("renderer=%s mode=%s posts=%d files=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Renderer, r.Mode, r.Posts, r.OutputFiles, r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

type serializableReport struct {
	SchemaVersion   int                      `json:"schema_version"`
	Renderer        string                   `json:"renderer"`
	Mode            string                   `json:"mode"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	DurationMS      int64                    `json:"duration_ms"`
	Posts           int                      `json:"posts"`
	Assets          int                      `json:"assets"`
	OutputFiles     int                      `json:"output_files"`
	OutputDigest    string                   `json:"output_digest,omitempty"`
	Errors          []string                 `json:"errors,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty"`
	StageDurations  map[StageName]int64      `json:"stage_durations_ms"`
	StageErrorKinds map[StageName]string     `json:"stage_error_kinds,omitempty"`
	StageCounts     map[StageName]StageCount `json:"stage_counts"`
	Manifest        []ManifestEntry          `json:"manifest"`
	Outcome         BuildOutcome             `json:"outcome"`
}

func (r *BuildReport) serializable() serializableReport {
	s := serializableReport{
		SchemaVersion:   r.SchemaVersion,
		Renderer:        r.Renderer,
		Mode:            r.Mode,
		Start:           r.Start,
		End:             r.End,
		DurationMS:      r.Duration().Milliseconds(),
		Posts:           r.Posts,
		Assets:          r.Assets,
		OutputFiles:     r.OutputFiles,
		OutputDigest:    r.OutputDigest,
		StageDurations:  make(map[StageName]int64, len(r.StageDurations)),
		StageErrorKinds: make(map[StageName]string, len(r.StageErrorKinds)),
		StageCounts:     r.StageCounts,
		Manifest:        r.Manifest,
		Outcome:         r.Outcome,
	}
	for _, e := range r.Errors {
		s.Errors = append(s.Errors, e.Error())
	}
	for _, w := range r.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	for k, v := range r.StageDurations {
		s.StageDurations[k] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[k] = string(v)
	}
	return s
}

// MarshalJSON renders the stable JSON form.
func (r *BuildReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.serializable())
}

// Persist writes the report as JSON to path via a temp file and rename.
func (r *BuildReport) Persist(path string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	data, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}

func stageResultLabel(se *StageError) metrics.ResultLabel {
	if se == nil {
		return metrics.ResultSuccess
	}
	switch se.Kind {
	case StageErrorWarning:
		return metrics.ResultWarning
	case StageErrorCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

func outcomeLabel(o BuildOutcome) metrics.BuildOutcomeLabel {
	switch o {
	case OutcomeSuccess:
		return metrics.BuildOutcomeSuccess
	case OutcomeWarning:
		return metrics.BuildOutcomeWarning
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
