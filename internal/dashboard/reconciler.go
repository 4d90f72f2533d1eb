// Package dashboard reconciles the stores into a workflow snapshot whenever
// something changes.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"menuops/internal/events"
	"menuops/internal/linker"
	"menuops/internal/models"
	"menuops/internal/prep"
	"menuops/internal/store"

	"github.com/rs/zerolog"
)

// Snapshot is the reconciled state of the current project. Error carries the
// failure of the refresh that produced it; the next refresh is the retry.
type Snapshot struct {
	Revision     uint64                             `json:"revision"`
	ProjectID    string                             `json:"projectId"`
	MenuName     string                             `json:"menuName,omitempty"`
	GeneratedAt  time.Time                          `json:"generatedAt"`
	Checklist    []Check                            `json:"checklist"`
	Completeness float64                            `json:"completeness"`
	ItemCount    int                                `json:"itemCount"`
	LinkedCount  int                                `json:"linkedCount"`
	Statuses     map[string]models.RecipeStatusInfo `json:"statuses"`
	Prep         models.PrepSummary                 `json:"prep"`
	Warnings     []models.Warning                   `json:"warnings"`
	Error        string                             `json:"error,omitempty"`
}

// Recorder receives the figures of every refresh
type Recorder interface {
	RecordRefresh(ok bool)
	RecordCompleteness(projectID string, percent float64)
	RecordWarnings(bySource map[string]int)
	ObserveGeneration(report string, d time.Duration)
}

// Reconciler recomputes the dashboard. Refreshes are throttled; a request
// inside the window schedules one trailing refresh that reads whatever the
// stores hold when it fires.
type Reconciler struct {
	stores   *store.Stores
	agg      *prep.Aggregator
	throttle time.Duration
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastRun   time.Time
	pending   *time.Timer
	latest    Snapshot
	revision  uint64
	listeners map[int]func(Snapshot)
	nextID    int
	unsub     func()

	runMu sync.Mutex
}

// New creates a reconciler. recorder may be nil.
func New(stores *store.Stores, agg *prep.Aggregator, throttle time.Duration, recorder Recorder, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		stores:    stores,
		agg:       agg,
		throttle:  throttle,
		recorder:  recorder,
		log:       log.With().Str("component", "dashboard").Logger(),
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Start subscribes the reconciler to store changes and runs a first refresh
func (r *Reconciler) Start(ctx context.Context, bus *events.Bus) {
	unsub := bus.Subscribe(func(e events.Event) {
		r.request()
	}, events.Storage, events.ProjectChanged, events.RecipesUpdated, events.RecipeLibraryUpdated, events.MenuWorkflowUpdated)

	r.mu.Lock()
	r.unsub = unsub
	r.mu.Unlock()

	r.Refresh(ctx, true)
}

// Stop unsubscribes and cancels a pending trailing refresh
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

// Subscribe registers a listener called with every new snapshot
func (r *Reconciler) Subscribe(fn func(Snapshot)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Latest returns the most recent snapshot
func (r *Reconciler) Latest() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Refresh recomputes the snapshot now when forced or when the throttle window
// has passed. Otherwise it schedules the trailing refresh and returns the
// current snapshot with ran=false.
func (r *Reconciler) Refresh(ctx context.Context, force bool) (snap Snapshot, ran bool) {
	r.mu.Lock()
	if !force && r.now().Sub(r.lastRun) < r.throttle {
		r.scheduleLocked()
		snap = r.latest
		r.mu.Unlock()
		return snap, false
	}
	r.lastRun = r.now()
	r.mu.Unlock()

	return r.run(ctx), true
}

// request is the event path: it never computes on the publisher's goroutine
func (r *Reconciler) request() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduleLocked()
}

func (r *Reconciler) scheduleLocked() {
	if r.pending != nil {
		return
	}
	delay := r.throttle - r.now().Sub(r.lastRun)
	if delay < 0 {
		delay = 0
	}
	r.pending = time.AfterFunc(delay, func() {
		r.mu.Lock()
		r.pending = nil
		r.lastRun = r.now()
		r.mu.Unlock()
		r.run(context.Background())
	})
}

func (r *Reconciler) run(ctx context.Context) Snapshot {
	r.runMu.Lock()
	snap := r.compute(ctx, "")
	r.runMu.Unlock()

	r.mu.Lock()
	r.revision++
	snap.Revision = r.revision
	r.latest = snap
	listeners := make([]func(Snapshot), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	if r.recorder != nil {
		r.recorder.RecordRefresh(snap.Error == "")
		if snap.Error == "" {
			r.recorder.RecordCompleteness(snap.ProjectID, snap.Completeness)
			r.recorder.RecordWarnings(countBySource(snap.Warnings))
		}
	}
	for _, fn := range listeners {
		fn(snap)
	}
	return snap
}

// SnapshotOf computes a snapshot of one project without publishing it. The
// stored current project is left alone.
func (r *Reconciler) SnapshotOf(ctx context.Context, projectID string) Snapshot {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.compute(ctx, projectID)
}

// compute reconciles projectID, or the current project when it is empty
func (r *Reconciler) compute(ctx context.Context, projectID string) (snap Snapshot) {
	snap = Snapshot{GeneratedAt: r.now(), Checklist: []Check{}, Warnings: []models.Warning{}, Statuses: map[string]models.RecipeStatusInfo{}}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Msg("dashboard refresh failed")
			snap = Snapshot{GeneratedAt: r.now(), ProjectID: snap.ProjectID, Checklist: []Check{}, Warnings: []models.Warning{}, Error: fmt.Sprint(p)}
		}
	}()

	if projectID == "" {
		current, err := r.stores.Projects.Current(ctx)
		if err != nil {
			return r.failed(snap, err)
		}
		projectID = current
	}
	snap.ProjectID = projectID

	in, warnings, err := prep.LoadInput(ctx, r.stores, projectID, time.Time{})
	if err != nil {
		return r.failed(snap, err)
	}
	snap.MenuName = in.Menu.Name
	snap.ItemCount = len(in.Items)

	recipes := linker.Index(in.Recipes)
	for _, item := range in.Items {
		recipe := linker.Resolve(item, in.Links, recipes)
		if recipe != nil {
			snap.LinkedCount++
		}
		snap.Statuses[item.ID] = linker.StatusOf(recipe)
	}

	started := time.Now()
	plan := r.agg.GeneratePrepPlan(in)
	r.observe("prep", started)

	started = time.Now()
	sheet := r.agg.BuildSheet(in)
	r.observe("foh", started)

	snap.Checklist = Checklist(in, plan, sheet)
	snap.Completeness = Completeness(snap.Checklist)
	snap.Prep = plan.Summary
	snap.Warnings = append(snap.Warnings, warnings...)
	snap.Warnings = append(snap.Warnings, plan.Warnings...)
	snap.Warnings = append(snap.Warnings, sheet.Warnings...)

	r.log.Debug().
		Str("project", projectID).
		Float64("completeness", snap.Completeness).
		Int("warnings", len(snap.Warnings)).
		Msg("dashboard refreshed")
	return snap
}

func (r *Reconciler) failed(snap Snapshot, err error) Snapshot {
	r.log.Error().Err(err).Str("project", snap.ProjectID).Msg("dashboard refresh failed")
	snap.Error = err.Error()
	return snap
}

func (r *Reconciler) observe(report string, started time.Time) {
	if r.recorder != nil {
		r.recorder.ObserveGeneration(report, time.Since(started))
	}
}

func countBySource(warnings []models.Warning) map[string]int {
	out := make(map[string]int)
	for _, w := range warnings {
		out[w.Source]++
	}
	return out
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
