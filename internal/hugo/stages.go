package hugo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StageName identifies a build stage.
type StageName string

const (
	StagePrepareOutput StageName = "prepare_output"
	StageRender        StageName = "render"
	StageVerifyOutput  StageName = "verify_output"
	StageWriteManifest StageName = "write_manifest"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries state across stages.
type BuildState struct {
	Generator *Generator
	Site      Site
	Report    *BuildReport
}

type namedStage struct {
	name StageName
	fn   Stage
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	stages []namedStage
}

func NewPipeline() *Pipeline { return &Pipeline{} }

// Add appends a stage.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.stages = append(p.stages, namedStage{name: name, fn: fn})
	return p
}

// Build returns the stages in order.
func (p *Pipeline) Build() []namedStage {
	return append([]namedStage(nil), p.stages...)
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.name, err)
			bs.observe(st.name, 0, se)
			return se
		}
		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)

		if err == nil {
			bs.observe(st.name, dur, nil)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(st.name, err)
			if ctx.Err() != nil {
				se = newCanceledStageError(st.name, err)
			}
		}
		bs.observe(st.name, dur, se)
		if se.Kind == StageErrorWarning {
			continue
		}
		return se
	}
	return nil
}

func (bs *BuildState) observe(name StageName, dur time.Duration, se *StageError) {
	bs.Report.recordStage(name, dur, se)
	rec := bs.Generator.recorder
	rec.ObserveStageDuration(string(name), dur)
	rec.IncStageResult(string(name), stageResultLabel(se))
}
