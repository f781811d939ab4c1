// Package pipeline orchestrates a documentation run end to end: extraction,
// fact population, staged generation under the quality gate, assembly,
// review, and handoff of the output bundle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/docpipe/docpipe/internal/assemble"
	"github.com/docpipe/docpipe/internal/audit"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/depgraph"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/gate"
	"github.com/docpipe/docpipe/internal/generate"
	"github.com/docpipe/docpipe/internal/manifest"
	"github.com/docpipe/docpipe/internal/output"
	"github.com/docpipe/docpipe/internal/store"
)

// NoSourceNote is attached as a fact and to the bundle metadata when the
// scanned tree contains no recognizable source files.
const NoSourceNote = "no source detected"

// Approver decides whether the finished document ships as-is. Non-approval
// with feedback triggers one regeneration pass before saving.
type Approver interface {
	Review(ctx context.Context, doc string, eval gate.EvaluationResult) (approved bool, feedback string, err error)
}

// TraceRecord is one stage invocation in the run's audit trail, appended to
// the store list "trace" as it happens.
type TraceRecord struct {
	Stage      string    `json:"stage"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
	Outcome    string    `json:"outcome"`
	Score      *float64  `json:"score,omitempty"`
}

// Result is everything a completed run produced. MissingSections lists
// sections absent from the final document; the bundle writer fills those
// files with placeholders.
type Result struct {
	RunID           string
	State           gate.State
	Document        string
	Sections        map[string]string
	MissingSections []string
	Evaluation      gate.EvaluationResult
	Structure       *extract.CodeStructure
	Graph           *depgraph.Graph
	Manifest        *manifest.Manifest
	Trace           []TraceRecord
	OutputDir       string
}

// Options wires the orchestrator's collaborators. Store and Collaborator
// are required; nil Approver auto-approves, nil Audit discards.
type Options struct {
	Store        *store.Store
	Collaborator generate.Completer
	Evaluator    *gate.Evaluator
	Config       config.PipelineConfig
	Approver     Approver
	Audit        audit.Sink
	OutputDir    string
}

// Orchestrator runs the fixed stage sequence for one source tree at a time.
type Orchestrator struct {
	store     *store.Store
	extractor *extract.Extractor
	llm       generate.Completer
	evaluator *gate.Evaluator
	cfg       config.PipelineConfig
	approver  Approver
	sink      audit.Sink
	outDir    string
}

func New(opts Options) *Orchestrator {
	extractor := extract.NewExtractor()
	if opts.Config.MaxFileKB > 0 {
		extractor.MaxFileBytes = int64(opts.Config.MaxFileKB) * 1024
	}
	sink := opts.Audit
	if sink == nil {
		sink = audit.NopSink{}
	}
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = gate.NewEvaluator(opts.Collaborator)
	}
	return &Orchestrator{
		store:     opts.Store,
		extractor: extractor,
		llm:       opts.Collaborator,
		evaluator: evaluator,
		cfg:       opts.Config,
		approver:  opts.Approver,
		sink:      sink,
		outDir:    opts.OutputDir,
	}
}

// Run documents the source tree at root. Analysis failures abort the run;
// generation and evaluation failures consume the gate's retry budget; the
// approval hook and audit sink never fail a run that got this far.
func (o *Orchestrator) Run(ctx context.Context, root string) (*Result, error) {
	runID := uuid.NewString()
	rs := o.store.ForRun(runID)
	if err := rs.Reset(); err != nil {
		return nil, fmt.Errorf("resetting store for run %s: %w", runID, err)
	}

	res := &Result{RunID: runID}

	var cs *extract.CodeStructure
	err := o.step(rs, res, "extract", nil, func() error {
		var err error
		cs, err = o.extractor.Extract(ctx, root)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Structure = cs

	var graph *depgraph.Graph
	_ = o.step(rs, res, "depgraph", nil, func() error {
		graph = depgraph.Build(cs)
		return nil
	})
	res.Graph = graph

	var man *manifest.Manifest
	_ = o.step(rs, res, "manifest", nil, func() error {
		var err error
		man, err = manifest.Analyze(root)
		if err != nil {
			log.Printf("pipeline: WARNING: manifest analysis: %v", err)
			man = &manifest.Manifest{}
		}
		return nil
	})
	res.Manifest = man

	if err := populateFacts(rs, root, cs, graph, man); err != nil {
		return nil, fmt.Errorf("populating facts: %w", err)
	}

	doc, eval, state, err := o.generateLoop(ctx, rs, res)
	if err != nil {
		return nil, err
	}
	res.Evaluation = eval
	res.State = state

	doc = o.reviewPass(ctx, rs, res, doc, eval)
	res.Document = doc
	res.Sections, res.MissingSections = assemble.SplitExpected(doc, generate.SectionOrder())
	if len(res.MissingSections) > 0 {
		log.Printf("pipeline: WARNING: document is missing sections: %s",
			strings.Join(res.MissingSections, ", "))
	}

	if o.outDir != "" {
		if err := o.writeBundle(res, graph); err != nil {
			return nil, err
		}
		res.OutputDir = o.outDir
	}

	if err := o.sink.Record(ctx, runID, auditEntries(res)); err != nil {
		log.Printf("pipeline: WARNING: audit sink: %v", err)
	}
	return res, nil
}

// generateLoop drives the quality gate: generate all stages, assemble,
// evaluate, and retry with the evaluator's reasons as feedback until the
// gate reaches a terminal state.
func (o *Orchestrator) generateLoop(ctx context.Context, rs *store.RunStore, res *Result) (string, gate.EvaluationResult, gate.State, error) {
	g := gate.New(o.cfg.QualityThreshold, o.cfg.MaxRetries)
	var doc string
	var eval gate.EvaluationResult

	for !g.Terminal() {
		if err := ctx.Err(); err != nil {
			return "", eval, g.State(), err
		}
		if err := g.BeginGeneration(); err != nil {
			return "", eval, g.State(), err
		}

		rs.SetStage("generate")
		frags, traces, err := o.runStages(ctx, rs)
		o.appendTraces(rs, res, traces)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", eval, g.State(), err
			}
			log.Printf("pipeline: WARNING: generation attempt %d failed: %v", g.Attempt(), err)
			if ferr := g.FailAttempt(); ferr != nil {
				return "", eval, g.State(), ferr
			}
			continue
		}

		doc, err = assemble.Assemble(frags)
		if err != nil {
			return "", eval, g.State(), fmt.Errorf("assembling document: %w", err)
		}
		if err := g.MarkAssembled(); err != nil {
			return "", eval, g.State(), err
		}
		if err := rs.Set("document", doc); err != nil {
			return "", eval, g.State(), err
		}

		if err := g.BeginEvaluation(); err != nil {
			return "", eval, g.State(), err
		}
		rs.SetStage("evaluate")
		start := time.Now()
		factsBlock, err := evaluationFacts(rs)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", eval, g.State(), fmt.Errorf("projecting evaluation facts: %w", err)
			}
			o.appendTraces(rs, res, []TraceRecord{traceRecord("evaluate", start, "error", nil)})
			log.Printf("pipeline: WARNING: projecting evaluation facts on attempt %d: %v", g.Attempt(), err)
			if ferr := g.FailAttempt(); ferr != nil {
				return "", eval, g.State(), ferr
			}
			continue
		}
		score, reasons, err := o.evaluator.Evaluate(ctx, doc, factsBlock)
		if err != nil {
			o.appendTraces(rs, res, []TraceRecord{traceRecord("evaluate", start, "error", nil)})
			log.Printf("pipeline: WARNING: evaluation attempt %d failed: %v", g.Attempt(), err)
			if ferr := g.FailAttempt(); ferr != nil {
				return "", eval, g.State(), ferr
			}
			continue
		}

		eval, err = g.Decide(score, reasons)
		if err != nil {
			return "", eval, g.State(), err
		}
		o.appendTraces(rs, res, []TraceRecord{traceRecord("evaluate", start, string(g.State()), &score)})
		if err := rs.Set("evaluation", eval); err != nil {
			return "", eval, g.State(), err
		}

		if g.State() == gate.StateRetrying {
			if err := rs.Set(generate.FeedbackKey, strings.Join(reasons, "; ")); err != nil {
				return "", eval, g.State(), err
			}
		}
	}
	return doc, eval, g.State(), nil
}

// runStages executes the generation stages: architecture and api_reference
// sequentially, then examples and getting_started concurrently. Every fact
// they read was written before the parallel window opens.
func (o *Orchestrator) runStages(ctx context.Context, rs *store.RunStore) ([]assemble.Fragment, []TraceRecord, error) {
	stages := generate.Stages()
	frags := make([]assemble.Fragment, len(stages))
	traces := make([]TraceRecord, len(stages))

	runOne := func(ctx context.Context, i int) error {
		st := stages[i]
		facts, err := generate.ProjectFacts(rs, st.Name(), st.FactKeys())
		if err != nil {
			return err
		}
		start := time.Now()
		frag, err := st.Run(ctx, o.llm, facts)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		traces[i] = traceRecord(st.Name(), start, outcome, nil)
		if err != nil {
			return err
		}
		frags[i] = frag
		return nil
	}

	for i := 0; i < 2; i++ {
		if err := runOne(ctx, i); err != nil {
			return nil, compactTraces(traces), err
		}
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i := 2; i < len(stages); i++ {
		p.Go(func(ctx context.Context) error {
			return runOne(ctx, i)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, compactTraces(traces), err
	}
	return frags, traces, nil
}

// reviewPass runs the approval hook. An edit request regenerates all stages
// once with the reviewer's feedback and saves the result directly.
func (o *Orchestrator) reviewPass(ctx context.Context, rs *store.RunStore, res *Result, doc string, eval gate.EvaluationResult) string {
	if o.approver == nil {
		return doc
	}
	approved, feedback, err := o.approver.Review(ctx, doc, eval)
	if err != nil {
		log.Printf("pipeline: WARNING: review failed, keeping document: %v", err)
		return doc
	}
	if approved || strings.TrimSpace(feedback) == "" {
		return doc
	}

	if err := rs.Set(generate.FeedbackKey, feedback); err != nil {
		log.Printf("pipeline: WARNING: storing review feedback: %v", err)
		return doc
	}
	rs.SetStage("generate")
	frags, traces, err := o.runStages(ctx, rs)
	o.appendTraces(rs, res, traces)
	if err != nil {
		log.Printf("pipeline: WARNING: edit pass failed, keeping document: %v", err)
		return doc
	}
	edited, err := assemble.Assemble(frags)
	if err != nil {
		log.Printf("pipeline: WARNING: edit pass assembly failed, keeping document: %v", err)
		return doc
	}
	if err := rs.Set("document", edited); err != nil {
		log.Printf("pipeline: WARNING: storing edited document: %v", err)
	}
	return edited
}

func (o *Orchestrator) writeBundle(res *Result, graph *depgraph.Graph) error {
	note := ""
	if len(res.Structure.Files) == 0 {
		note = NoSourceNote
	}
	bundle := &output.Bundle{
		Sections: res.Sections,
		Document: res.Document,
		Diagram:  graph.Mermaid(),
		Metadata: output.Metadata{
			RunID:          res.RunID,
			GeneratedAt:    time.Now().UTC(),
			Language:       res.Structure.Language,
			TotalFiles:     len(res.Structure.Files),
			TotalEndpoints: output.CountEndpoints(res.Sections[generate.SectionAPIReference]),
			Evaluation:     res.Evaluation,
			Note:           note,
		},
	}
	if err := output.Write(o.outDir, bundle); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	return nil
}

// step runs one analysis stage with trace recording. The stage name also
// attributes any store writes the stage makes.
func (o *Orchestrator) step(rs *store.RunStore, res *Result, name string, score *float64, fn func() error) error {
	rs.SetStage(name)
	start := time.Now()
	err := fn()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.appendTraces(rs, res, []TraceRecord{traceRecord(name, start, outcome, score)})
	return err
}

func (o *Orchestrator) appendTraces(rs *store.RunStore, res *Result, traces []TraceRecord) {
	for _, rec := range traces {
		if err := rs.AppendToList("trace", rec); err != nil {
			log.Printf("pipeline: WARNING: recording trace for %s: %v", rec.Stage, err)
		}
		res.Trace = append(res.Trace, rec)
	}
}

func traceRecord(stage string, start time.Time, outcome string, score *float64) TraceRecord {
	return TraceRecord{
		Stage:      stage,
		StartedAt:  start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
		Outcome:    outcome,
		Score:      score,
	}
}

// compactTraces drops zero-value slots left by stages that never ran.
func compactTraces(traces []TraceRecord) []TraceRecord {
	out := traces[:0]
	for _, rec := range traces {
		if rec.Stage != "" {
			out = append(out, rec)
		}
	}
	return out
}

func auditEntries(res *Result) []audit.Entry {
	entries := make([]audit.Entry, 0, len(res.Trace))
	seen := make(map[string]int)
	for _, rec := range res.Trace {
		seen[rec.Stage]++
		stage := rec.Stage
		if n := seen[rec.Stage]; n > 1 {
			stage = fmt.Sprintf("%s#%d", rec.Stage, n)
		}
		entries = append(entries, audit.Entry{
			Stage:           stage,
			TaskDescription: fmt.Sprintf("%s (%s, %dms)", rec.Stage, rec.Outcome, rec.DurationMS),
			At:              rec.StartedAt,
			Score:           rec.Score,
		})
	}
	return entries
}
