package hugo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

func TestGenerate_PromotesStagingAndWritesReport(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	out := filepath.Join(t.TempDir(), "public")
	reportPath := filepath.Join(t.TempDir(), "build-report.json")

	r := &fakeRenderer{files: map[string]string{"index.html": "home"}}
	report, err := NewGenerator(r, out).SetReportPath(reportPath).Generate(context.Background(), site)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 1, report.OutputFiles)
	assert.NotEmpty(t, report.OutputDigest)
	require.Len(t, report.Manifest, 2)
	assert.Equal(t, "charlie", report.Manifest[0].Slug)
	assert.Equal(t, 1, report.Manifest[0].Position)
	for _, st := range []StageName{StagePrepareOutput, StageRender, StageVerifyOutput, StageWriteManifest} {
		assert.Equal(t, 1, report.StageCounts[st].Success, st)
	}

	assert.Equal(t, map[string]string{"index.html": "home"}, readTree(t, out))
	assert.NoDirExists(t, StageDirFor(out))
	assert.NoDirExists(t, out+".prev")
	assert.FileExists(t, reportPath)
	assert.NoFileExists(t, filepath.Join(out, "build-report.json"))
}

func TestGenerate_RenderFailureKeepsPreviousOutput(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	out := filepath.Join(t.TempDir(), "public")

	good := &fakeRenderer{files: map[string]string{"index.html": "v1", "posts/a/index.html": "a"}}
	_, err := NewGenerator(good, out).Generate(context.Background(), site)
	require.NoError(t, err)
	before := readTree(t, out)

	bad := &fakeRenderer{files: map[string]string{"index.html": "half-written"}, err: errors.New("template exploded")}
	report, err := NewGenerator(bad, out).Generate(context.Background(), site)
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrRenderFailure)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, StageErrorFatal, report.StageErrorKinds[StageRender])
	assert.Zero(t, report.StageCounts[StageVerifyOutput].Success)

	assert.Equal(t, before, readTree(t, out))
	assert.NoDirExists(t, StageDirFor(out))
}

func TestGenerate_MissingIndexFailsVerification(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	out := filepath.Join(t.TempDir(), "public")

	r := &fakeRenderer{files: map[string]string{"sitemap.xml": "<urlset/>"}}
	_, err := NewGenerator(r, out).Generate(context.Background(), site)
	require.ErrorIs(t, err, ferrors.ErrRenderFailure)
	assert.NoDirExists(t, out)
}

func TestGenerate_CanceledContext(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	out := filepath.Join(t.TempDir(), "public")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRenderer{files: map[string]string{"index.html": "x"}}
	report, err := NewGenerator(r, out).Generate(ctx, site)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Zero(t, r.calls)
}

func TestGenerate_StaleStageIsDiscarded(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	out := filepath.Join(t.TempDir(), "public")
	stale := StageDirFor(out)
	require.NoError(t, os.MkdirAll(stale, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "leftover.html"), []byte("x"), 0o600))

	r := &fakeRenderer{files: map[string]string{"index.html": "fresh"}}
	_, err := NewGenerator(r, out).Generate(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"index.html": "fresh"}, readTree(t, out))
}

func TestTreeDigest(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, d := range []string{a, b} {
		require.NoError(t, os.MkdirAll(filepath.Join(d, "x"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(d, "x", "f"), []byte("same"), 0o600))
	}
	na, da, err := TreeDigest(a)
	require.NoError(t, err)
	_, db, err := TreeDigest(b)
	require.NoError(t, err)
	assert.Equal(t, 1, na)
	assert.Equal(t, da, db)

	require.NoError(t, os.WriteFile(filepath.Join(b, "x", "f"), []byte("diff"), 0o600))
	_, db, err = TreeDigest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}
