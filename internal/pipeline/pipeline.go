// Package pipeline runs the extract, transform, report and index steps in
// order as a linear state machine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/metrics"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/transform"
)

// State is a pipeline step or a terminal state.
type State string

// Pipeline states, in execution order.
const (
	StateInit      State = "init"
	StateFetch     State = "fetch"
	StateTransform State = "transform"
	StateAggregate State = "aggregate"
	StateReport    State = "report"
	StateIndex     State = "index"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Fetcher supplies the raw records. It never fails; an empty result means
// nothing could be obtained.
type Fetcher interface {
	Fetch(ctx context.Context) []model.RawRecord
}

// Indexer rebuilds the retrieval index from the written artifacts.
type Indexer interface {
	Build(ctx context.Context, csvPath, reportPath string) (int, error)
}

// Outputs holds the artifact paths of a run.
type Outputs struct {
	CSVPath    string
	ChartPath  string
	ReportPath string
	TopN       int
}

// StepError reports the step a run failed in.
type StepError struct {
	Err  error
	Step State
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result describes a finished run.
type Result struct {
	State     State
	Outputs   Outputs
	Summary   report.Summary
	Records   int
	Documents int
	Duration  time.Duration
}

// Runner executes pipeline runs.
type Runner struct {
	fetcher  Fetcher
	indexer  Indexer
	logger   *slog.Logger
	renderer report.Renderer
	outputs  Outputs
}

// NewRunner creates a Runner. A nil indexer skips the index step.
func NewRunner(fetcher Fetcher, indexer Indexer, renderer report.Renderer, outputs Outputs, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if outputs.TopN <= 0 {
		outputs.TopN = 5
	}
	return &Runner{
		fetcher:  fetcher,
		indexer:  indexer,
		logger:   logger,
		renderer: renderer,
		outputs:  outputs,
	}
}

// run carries the data passed between steps.
type run struct {
	records  []model.RawRecord
	table    model.Table
	counts   []model.TypeCount
	averages []model.TypeAverage
	top      model.Table
	result   Result
}

// Run executes one pipeline run. An empty fetch ends the run in StateDone
// without producing artifacts. A failing step ends it in StateFailed and the
// error is returned as a *StepError.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	st := &run{result: Result{State: StateInit, Outputs: r.outputs}}
	r.logger.Info("Starting pipeline")

	finish := func(state State) Result {
		st.result.State = state
		st.result.Duration = time.Since(start)
		metrics.PipelineRuns.WithLabelValues(string(state)).Inc()
		metrics.PipelineDuration.Observe(st.result.Duration.Seconds())
		return st.result
	}

	st.result.State = StateFetch
	st.records = r.fetcher.Fetch(ctx)
	st.result.Records = len(st.records)
	r.logger.Info("Fetch finished", "records", len(st.records))
	if len(st.records) == 0 {
		r.logger.Warn("No records were obtained, ending pipeline")
		return finish(StateDone), nil
	}

	steps := []struct {
		fn    func(context.Context, *run) error
		state State
	}{
		{state: StateTransform, fn: r.transform},
		{state: StateAggregate, fn: r.aggregate},
		{state: StateReport, fn: r.report},
		{state: StateIndex, fn: r.index},
	}

	for _, step := range steps {
		st.result.State = step.state
		if err := runStep(ctx, step.fn, st); err != nil {
			r.logger.Error("Pipeline step failed", "step", step.state, "error", err)
			return finish(StateFailed), &StepError{Step: step.state, Err: err}
		}
	}

	res := finish(StateDone)
	r.logger.Info("Pipeline finished", "duration", res.Duration)
	return res, nil
}

// runStep converts a panic inside a step into an error.
func runStep(ctx context.Context, fn func(context.Context, *run) error, st *run) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, st)
}

func (r *Runner) transform(_ context.Context, st *run) error {
	st.table = transform.Transform(st.records)
	r.logger.Info("Transform finished", "rows", len(st.table))
	return nil
}

func (r *Runner) aggregate(_ context.Context, st *run) error {
	st.counts = transform.GroupCounts(st.table)
	st.averages = transform.GroupAverages(st.table)
	st.top = transform.TopNByExperience(st.table, r.outputs.TopN)
	r.logger.Info("Aggregates computed", "types", len(st.counts))
	return nil
}

func (r *Runner) report(_ context.Context, st *run) error {
	if err := report.ExportCSV(st.table, r.outputs.CSVPath); err != nil {
		return err
	}
	r.logger.Info("CSV report exported", "path", r.outputs.CSVPath)

	if err := r.renderer.TypeCountChart(st.counts, r.outputs.ChartPath); err != nil {
		return err
	}
	r.logger.Info("Type chart saved", "path", r.outputs.ChartPath)

	artifacts := report.Artifacts{ChartPath: r.outputs.ChartPath, CSVPath: r.outputs.CSVPath}
	if err := report.WriteConsolidated(st.top, st.averages, artifacts, r.outputs.ReportPath); err != nil {
		return err
	}
	r.logger.Info("Consolidated report written", "path", r.outputs.ReportPath)

	st.result.Summary = report.Summarize(st.table, st.counts)
	st.result.Summary.Log(r.logger)
	return nil
}

func (r *Runner) index(ctx context.Context, st *run) error {
	if r.indexer == nil {
		r.logger.Debug("No indexer configured, skipping index step")
		return nil
	}
	n, err := r.indexer.Build(ctx, r.outputs.CSVPath, r.outputs.ReportPath)
	if err != nil {
		return err
	}
	if n == 0 {
		r.logger.Warn("No documents were indexed")
	}
	st.result.Documents = n
	return nil
}
