package hugo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// Generator runs the build stages for one output directory. It is not safe
// for concurrent use; callers serialize builds of the same site.
type Generator struct {
	renderer   Renderer
	outputDir  string
	stageDir   string
	recorder   metrics.Recorder
	reportPath string
}

// NewGenerator creates a generator rendering with r into outputDir.
func NewGenerator(r Renderer, outputDir string) *Generator {
	return &Generator{
		renderer:  r,
		outputDir: filepath.Clean(outputDir),
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder. Returns the generator for chaining.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// SetReportPath makes Generate persist its report to path. The report is
// kept outside the output so the output depends only on the inputs.
func (g *Generator) SetReportPath(path string) *Generator {
	g.reportPath = path
	return g
}

// OutputDir is the directory Generate promotes into.
func (g *Generator) OutputDir() string { return g.outputDir }

// Generate renders site and promotes the result over the output directory.
// On error the output is untouched and the returned error is a render
// failure (or a runtime error when ctx was canceled). The report is
// returned in both cases.
func (g *Generator) Generate(ctx context.Context, site Site) (*BuildReport, error) {
	report := newBuildReport(g.renderer.Name(), string(site.Mode))
	report.Posts = len(site.Entries)
	report.Assets = len(site.Assets)
	for _, w := range site.Warnings {
		report.AddWarning(w)
	}

	slog.Info("Starting site generation",
		logfields.Engine(g.renderer.Name()),
		logfields.Mode(string(site.Mode)),
		logfields.Count(len(site.Entries)),
		slog.String("output", g.outputDir))

	bs := &BuildState{Generator: g, Site: site, Report: report}
	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageRender, stageRender).
		Add(StageVerifyOutput, stageVerifyOutput).
		Add(StageWriteManifest, stageWriteManifest).
		Build()

	err := runStages(ctx, bs, stages)
	if err == nil {
		if ferr := g.finalizeStaging(); ferr != nil {
			err = newFatalStageError(StageVerifyOutput, ferr)
			report.Errors = append(report.Errors, err)
		}
	}
	if err != nil {
		g.abortStaging()
	}

	report.finish()
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(outcomeLabel(report.Outcome))
	if g.reportPath != "" {
		if perr := report.Persist(g.reportPath); perr != nil {
			slog.Warn("Failed to persist build report", logfields.Path(g.reportPath), logfields.Error(perr))
		}
	}

	if err != nil {
		return report, classifyStageError(err)
	}
	slog.Info("Site generation completed",
		slog.String("output", g.outputDir),
		logfields.Count(report.OutputFiles),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
		slog.String("outcome", string(report.Outcome)))
	return report, nil
}

func classifyStageError(err error) error {
	var se *StageError
	stage := ""
	if errors.As(err, &se) {
		stage = string(se.Stage)
		if se.Kind == StageErrorCanceled {
			return errors.RuntimeError("build canceled").
				WithCause(err).
				WithContext("stage", stage).
				Build()
		}
	}
	return errors.RenderError("site build failed").
		WithCause(err).
		WithContext("stage", stage).
		Build()
}

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	if err := os.MkdirAll(filepath.Dir(bs.Generator.outputDir), 0o750); err != nil {
		return newFatalStageError(StagePrepareOutput, err)
	}
	return bs.Generator.beginStaging()
}

func stageRender(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := g.renderer.Render(ctx, bs.Site, g.stageDir); err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StageRender, err)
		}
		return newFatalStageError(StageRender, err)
	}
	return nil
}

func stageVerifyOutput(_ context.Context, bs *BuildState) error {
	dir := bs.Generator.stageDir
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		return newFatalStageError(StageVerifyOutput, fmt.Errorf("renderer produced no index.html: %w", err))
	}
	files, digest, err := TreeDigest(dir)
	if err != nil {
		return newFatalStageError(StageVerifyOutput, err)
	}
	bs.Report.OutputFiles = files
	bs.Report.OutputDigest = digest
	return nil
}

func stageWriteManifest(_ context.Context, bs *BuildState) error {
	manifest := make([]ManifestEntry, 0, len(bs.Site.Entries))
	for _, e := range bs.Site.Entries {
		manifest = append(manifest, ManifestEntry{
			Position:    e.Position,
			Slug:        e.Post.Slug,
			Path:        e.Post.RelPath,
			Title:       e.Post.Title,
			Date:        e.Post.Date,
			Draft:       e.Post.Draft,
			Fingerprint: e.Post.Fingerprint,
		})
	}
	bs.Report.Manifest = manifest
	return nil
}

// TreeDigest hashes every regular file under root (relative path and
// contents, in lexical order). Equal digests mean byte-identical trees.
func TreeDigest(root string) (int, string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, rerr := filepath.Rel(root, p)
			if rerr != nil {
				return rerr
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("walk output: %w", err)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, rel := range paths {
		_, _ = io.WriteString(h, rel)
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return 0, "", fmt.Errorf("open %s: %w", rel, err)
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return 0, "", fmt.Errorf("read %s: %w", rel, err)
		}
		h.Write([]byte{0})
	}
	return len(paths), hex.EncodeToString(h.Sum(nil)), nil
}
