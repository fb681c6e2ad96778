// Package compose drives the full scene-generation loop: plan, generate
// assets, place, capture, evaluate, refine, repeat. It owns no rendering,
// no asset generation, and no LLM calls; those arrive as collaborator
// interfaces and everything here stays deterministic around them.
package compose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bug39/scenesmith/pkg/analysis"
	"github.com/bug39/scenesmith/pkg/config"
	"github.com/bug39/scenesmith/pkg/evaluate"
	"github.com/bug39/scenesmith/pkg/placement"
	"github.com/bug39/scenesmith/pkg/plan"
	"github.com/bug39/scenesmith/pkg/refine"
	"github.com/bug39/scenesmith/pkg/validation"
)

// ErrAborted marks caller-triggered cancellation. Callers distinguish it
// from real failures so an intentional stop is not reported as an error.
var ErrAborted = errors.New("composition aborted")

// Result is the terminal outcome of one composition request. Partial
// output survives failure: whatever plan and placements were produced are
// returned alongside the error.
type Result struct {
	Success    bool
	Aborted    bool
	Err        error
	Plan       *plan.Plan
	Placements []placement.Placement
	Iterations int
	Score      int
	Report     *validation.Report
}

// Orchestrator runs composition requests one at a time. Per-request state
// lives in an iterationState and is discarded between requests; the
// orchestrator itself only holds configuration, collaborators, and the
// event stream.
type Orchestrator struct {
	cfg      config.Engine
	planner  Planner
	assets   AssetGenerator
	measurer Measurer
	renderer Renderer
	world    World
	events   chan Event
}

// Deps bundles the external collaborators.
type Deps struct {
	Planner  Planner
	Assets   AssetGenerator
	Measurer Measurer
	Renderer Renderer
	World    World
}

// New creates an orchestrator.
func New(cfg config.Engine, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		planner:  deps.Planner,
		assets:   deps.Assets,
		measurer: deps.Measurer,
		renderer: deps.Renderer,
		world:    deps.World,
		events:   make(chan Event, 64),
	}
}

// Events returns the phase-transition stream. Events are dropped, never
// buffered unboundedly, when no one listens.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// generatedAsset is one generated-and-measured asset, keyed by prompt so
// repeated prompts reuse the same asset.
type generatedAsset struct {
	ID   string
	Code string
	M    placement.Measurement
	OK   bool
}

// iterationState is the per-request scratchpad.
type iterationState struct {
	plan       *plan.Plan
	report     *validation.Report
	assets     map[string]generatedAsset
	cache      *placement.Cache
	placements []placement.Placement
	scores     []int
	iteration  int

	failuresSeen int // measurement failures already surfaced in the report
}

// Compose runs one request to completion. It never panics outward: every
// outcome, including cancellation, arrives as a Result.
func (o *Orchestrator) Compose(ctx context.Context, request string) Result {
	st := &iterationState{
		assets: make(map[string]generatedAsset),
		report: validation.NewReport(),
	}
	if o.measurer != nil {
		st.cache = placement.NewCache(o.measurer.Measure)
	}

	if res, done := o.plan(ctx, st, request); done {
		return res
	}
	if res, done := o.generateAssets(ctx, st); done {
		return res
	}
	if res, done := o.place(ctx, st); done {
		return res
	}
	return o.iterate(ctx, st, request)
}

func (o *Orchestrator) plan(ctx context.Context, st *iterationState, request string) (Result, bool) {
	if ctx.Err() != nil {
		return o.abort(st), true
	}
	o.emit(Event{Phase: PhasePlanning})
	if o.planner == nil {
		return o.fail(st, errors.New("no planner configured")), true
	}

	text, err := o.planner.Generate(ctx, planPrompt(request))
	if err != nil {
		if ctx.Err() != nil {
			return o.abort(st), true
		}
		return o.fail(st, fmt.Errorf("plan generation: %w", err)), true
	}

	p, report, err := plan.Normalize(text, plan.ModeAuto)
	if err != nil {
		return o.fail(st, fmt.Errorf("plan normalization: %w", err)), true
	}
	st.plan = p
	st.report.Merge(report)
	return Result{}, false
}

// generateAssets runs sequentially over the plan's unique prompts,
// yielding between items so a cancellation lands promptly even when the
// generator itself never checks the context.
func (o *Orchestrator) generateAssets(ctx context.Context, st *iterationState) (Result, bool) {
	if ctx.Err() != nil {
		return o.abort(st), true
	}
	o.emit(Event{Phase: PhaseGeneratingAssets})
	if o.assets == nil {
		return Result{}, false
	}

	for _, a := range uniqueAssets(st.plan) {
		select {
		case <-ctx.Done():
			return o.abort(st), true
		default:
		}
		if _, ok := st.assets[a.Prompt]; ok {
			continue
		}

		id, code, err := o.assets.Generate(ctx, a.Prompt, a.Category)
		if err != nil {
			if ctx.Err() != nil {
				return o.abort(st), true
			}
			o.warn(st, fmt.Sprintf("asset %q failed to generate: %v", a.Prompt, err))
			continue
		}

		ga := generatedAsset{ID: id, Code: code}
		if st.cache != nil {
			ga.M = st.cache.Measure(code)
			ga.OK = true
		}
		st.assets[a.Prompt] = ga
	}
	o.noteMeasurementFailures(st)
	return Result{}, false
}

// place resolves the plan against the world's current content: whatever
// already exists in the scene is an obstacle for every new candidate.
func (o *Orchestrator) place(ctx context.Context, st *iterationState) (Result, bool) {
	if ctx.Err() != nil {
		return o.abort(st), true
	}
	o.emit(Event{Phase: PhasePlacing})

	opts := []placement.Option{placement.WithMeasure(o.measureFunc(st))}
	if o.world != nil {
		existing, err := o.world.GetWorldData(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return o.abort(st), true
		case err != nil:
			o.warn(st, fmt.Sprintf("world data unavailable, placing against an empty scene: %v", err))
		case len(existing) > 0:
			opts = append(opts, placement.WithExisting(existing))
		}
	}
	r := placement.New(o.cfg, opts...)
	placements, report, err := r.Resolve(st.plan)
	st.report.Merge(report)
	if err != nil {
		return o.fail(st, fmt.Errorf("placement: %w", err)), true
	}
	for i := range placements {
		if ga, ok := st.assets[placements[i].Prompt]; ok {
			placements[i].AssetID = ga.ID
		}
	}
	st.placements = placements

	if o.world != nil {
		if err := o.world.ExecuteScenePlan(ctx, placements); err != nil {
			if ctx.Err() != nil {
				return o.abort(st), true
			}
			return o.fail(st, fmt.Errorf("applying scene plan: %w", err)), true
		}
	}
	return Result{}, false
}

// iterate runs capture/evaluate/refine rounds until a termination
// condition fires, in order: satisfactory or score at threshold, the
// iteration cap, then plateau. The plateau check runs after refinements
// so a refinement always gets a chance to break the plateau.
func (o *Orchestrator) iterate(ctx context.Context, st *iterationState, request string) Result {
	for st.iteration = 1; ; st.iteration++ {
		if ctx.Err() != nil {
			return o.abort(st)
		}

		o.waitForLoads(ctx, st)
		if ctx.Err() != nil {
			return o.abort(st)
		}

		images := o.capture(ctx, st)
		ev := o.evaluate(ctx, st, request, images)
		if ctx.Err() != nil {
			return o.abort(st)
		}
		st.scores = append(st.scores, ev.Score)

		if ev.Satisfactory || float64(ev.Score) >= o.cfg.ScoreThreshold {
			return o.complete(st, true)
		}
		if st.iteration >= o.cfg.MaxIterations {
			return o.complete(st, false)
		}

		o.refine(ctx, st, ev)
		if ctx.Err() != nil {
			return o.abort(st)
		}

		if plateaued(st.scores, o.cfg.PlateauDelta) {
			o.warn(st, "score plateaued; stopping refinement")
			return o.complete(st, false)
		}
	}
}

// waitForLoads polls the renderer until outstanding asset loads settle,
// bounded by the configured timeout. On timeout the loop proceeds with
// whatever has loaded; a capture of a half-loaded scene is still more
// useful than no capture.
func (o *Orchestrator) waitForLoads(ctx context.Context, st *iterationState) {
	if o.renderer == nil {
		return
	}
	deadline := time.Now().Add(o.cfg.LoadWaitTimeout)
	for o.renderer.PendingLoads() > 0 {
		if time.Now().After(deadline) {
			o.warn(st, fmt.Sprintf("asset loads still pending after %s; capturing anyway", o.cfg.LoadWaitTimeout))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.LoadPollInterval):
		}
	}
}

// capture takes the three standard views. A failed capture is skipped:
// the evaluator works with whatever views exist.
func (o *Orchestrator) capture(ctx context.Context, st *iterationState) [][]byte {
	o.emit(Event{Phase: PhaseCapturing, Iteration: st.iteration})
	if o.renderer == nil {
		return nil
	}
	var images [][]byte
	for _, preset := range []string{PresetOverview, PresetGround} {
		img, err := o.renderer.Capture(ctx, preset)
		if err != nil {
			o.warn(st, fmt.Sprintf("capture %q failed: %v", preset, err))
			continue
		}
		images = append(images, img)
	}
	if img, err := o.renderer.CaptureOrthographic(ctx); err != nil {
		o.warn(st, fmt.Sprintf("orthographic capture failed: %v", err))
	} else {
		images = append(images, img)
	}
	return images
}

// evaluate scores the current scene. An unparseable response degrades to
// the neutral evaluation rather than failing the request.
func (o *Orchestrator) evaluate(ctx context.Context, st *iterationState, request string, images [][]byte) evaluate.Evaluation {
	o.emit(Event{Phase: PhaseEvaluating, Iteration: st.iteration})

	report, score := analysis.Analyze(st.placements, o.measureFunc(st), o.cfg)
	prompt := evalPrompt(request, analysis.Summary(report, score), st.iteration)

	text, err := o.planner.GenerateWithImages(ctx, prompt, images)
	if err != nil {
		o.warn(st, fmt.Sprintf("evaluation request failed: %v", err))
		return evaluate.Neutral()
	}
	ev := evaluate.ParseSceneEvaluation(text)
	if ev == nil {
		o.warn(st, "evaluation response unparseable; using neutral evaluation")
		return evaluate.Neutral()
	}
	return *ev
}

// refine applies the evaluation's actions and pushes the resulting
// changes to the world.
func (o *Orchestrator) refine(ctx context.Context, st *iterationState, ev evaluate.Evaluation) {
	o.emit(Event{Phase: PhaseRefining, Iteration: st.iteration, Score: ev.Score})
	if len(ev.Actions) == 0 {
		return
	}

	before := st.placements
	after, _, report := refine.Apply(refine.FromActions(ev.Actions), before, o.cfg, o.measureFunc(st))
	st.report.Merge(report)
	o.assignAssets(ctx, st, after)
	st.placements = after
	o.syncWorld(ctx, st, before, after)
}

// assignAssets generates and measures assets for placements whose prompt
// has none yet, then stamps asset ids. Refinement adds introduce prompts
// the initial generation pass never saw; without an asset the world would
// receive a placement referencing nothing.
func (o *Orchestrator) assignAssets(ctx context.Context, st *iterationState, placements []placement.Placement) {
	for i := range placements {
		p := &placements[i]
		if p.AssetID != "" || p.Prompt == "" {
			continue
		}
		ga, ok := st.assets[p.Prompt]
		if !ok {
			if o.assets == nil || ctx.Err() != nil {
				continue
			}
			id, code, err := o.assets.Generate(ctx, p.Prompt, p.Category)
			if err != nil {
				o.warn(st, fmt.Sprintf("asset %q failed to generate: %v", p.Prompt, err))
				continue
			}
			ga = generatedAsset{ID: id, Code: code}
			if st.cache != nil {
				ga.M = st.cache.Measure(code)
				ga.OK = true
			}
			st.assets[p.Prompt] = ga
		}
		p.AssetID = ga.ID
	}
	o.noteMeasurementFailures(st)
}

// noteMeasurementFailures surfaces measurement fallbacks in the report;
// the cache itself only counts them.
func (o *Orchestrator) noteMeasurementFailures(st *iterationState) {
	if st.cache == nil {
		return
	}
	if n := st.cache.Failures(); n > st.failuresSeen {
		o.warn(st, fmt.Sprintf("%d asset measurements failed; using the default bounding box", n-st.failuresSeen))
		st.failuresSeen = n
	}
}

// syncWorld diffs placements by instance id and issues the minimal
// updates: deletions, in-place updates, and a scene-plan execution for
// the newly added remainder.
func (o *Orchestrator) syncWorld(ctx context.Context, st *iterationState, before, after []placement.Placement) {
	if o.world == nil {
		return
	}
	current := make(map[string]placement.Placement, len(after))
	for _, p := range after {
		current[p.InstanceID] = p
	}

	seen := make(map[string]bool, len(before))
	for _, old := range before {
		seen[old.InstanceID] = true
		now, ok := current[old.InstanceID]
		switch {
		case !ok:
			if err := o.world.DeleteInstance(ctx, old.InstanceID); err != nil {
				o.warn(st, fmt.Sprintf("delete %s: %v", old.InstanceID, err))
			}
		case now.Position != old.Position || now.Scale != old.Scale:
			if err := o.world.UpdateInstance(ctx, now); err != nil {
				o.warn(st, fmt.Sprintf("update %s: %v", now.InstanceID, err))
			}
		}
	}

	var added []placement.Placement
	for _, p := range after {
		if !seen[p.InstanceID] {
			added = append(added, p)
		}
	}
	if len(added) > 0 {
		if err := o.world.ExecuteScenePlan(ctx, added); err != nil {
			o.warn(st, fmt.Sprintf("placing %d added instances: %v", len(added), err))
		}
	}
}

// plateaued reports whether the last three scores show no improvement
// greater than delta across both consecutive pairs.
func plateaued(scores []int, delta float64) bool {
	n := len(scores)
	if n < 3 {
		return false
	}
	d1 := float64(scores[n-1] - scores[n-2])
	d2 := float64(scores[n-2] - scores[n-3])
	return d1 <= delta && d2 <= delta
}

// measureFunc adapts the generated-asset table to the resolver's lookup.
func (o *Orchestrator) measureFunc(st *iterationState) placement.MeasureFunc {
	return func(prompt string) (placement.Measurement, bool) {
		ga, ok := st.assets[prompt]
		if !ok || !ga.OK {
			return placement.Measurement{}, false
		}
		return ga.M, true
	}
}

// uniqueAssets lists the plan's assets deduplicated by prompt, in plan
// order: structures first so their assets exist by placement time even if
// generation is cut short.
func uniqueAssets(p *plan.Plan) []plan.Asset {
	var out []plan.Asset
	seen := make(map[string]bool)
	add := func(a plan.Asset) {
		if a.Prompt == "" || seen[a.Prompt] {
			return
		}
		seen[a.Prompt] = true
		out = append(out, a)
	}
	for _, s := range p.Structures {
		add(s.Asset)
	}
	for _, d := range p.Decorations {
		add(d.Asset)
	}
	for _, a := range p.Arrangements {
		add(a.Asset)
	}
	for _, a := range p.Atmosphere {
		add(a.Asset)
	}
	for _, n := range p.NPCs {
		add(n.Asset)
	}
	return out
}

func (o *Orchestrator) warn(st *iterationState, msg string) {
	st.report.AddWarning(validation.Result{Level: validation.LevelPlacement, Message: msg})
}

func (o *Orchestrator) abort(st *iterationState) Result {
	if o.planner != nil {
		o.planner.Cancel()
	}
	o.emit(Event{Phase: PhaseAborted, Iteration: st.iteration})
	return Result{
		Aborted:    true,
		Err:        ErrAborted,
		Plan:       st.plan,
		Placements: st.placements,
		Iterations: st.iteration,
		Report:     st.report,
	}
}

func (o *Orchestrator) fail(st *iterationState, err error) Result {
	o.emit(Event{Phase: PhaseError, Iteration: st.iteration, Message: err.Error()})
	return Result{
		Err:        err,
		Plan:       st.plan,
		Placements: st.placements,
		Iterations: st.iteration,
		Report:     st.report,
	}
}

func (o *Orchestrator) complete(st *iterationState, success bool) Result {
	score := 0
	if len(st.scores) > 0 {
		score = st.scores[len(st.scores)-1]
	}
	o.emit(Event{Phase: PhaseComplete, Iteration: st.iteration, Score: score})
	return Result{
		Success:    success,
		Plan:       st.plan,
		Placements: st.placements,
		Iterations: st.iteration,
		Score:      score,
		Report:     st.report,
	}
}
