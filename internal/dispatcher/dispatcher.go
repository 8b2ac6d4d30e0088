package dispatcher

import (
	"context"
	"time"

	"github.com/vk/wellformed/internal/batch"
	"github.com/vk/wellformed/internal/bracket"
	"github.com/vk/wellformed/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Emitter receives verdicts from the collector goroutine.
type Emitter interface {
	Emit(ctx context.Context, v batch.Verdict) error
}

// Skipper is an optional Emitter extension notified of indexes whose unit
// failed.
type Skipper interface {
	Skip(ctx context.Context, index int) error
}

// CheckFunc judges one text.
type CheckFunc func(text string) bracket.Result

// Options configures a Dispatcher.
type Options struct {
	// Workers caps the units in flight. 0 or less means no cap.
	Workers int
	// Explain logs every violation at debug level.
	Explain bool
	// Check defaults to bracket.Check.
	Check CheckFunc
	// Progress, when set, receives the running totals from the collector
	// goroutine after every unit, before the verdict is emitted.
	Progress func(Summary)
}

// Summary describes a finished run.
type Summary struct {
	Submitted  int           `json:"submitted"`
	Emitted    int           `json:"emitted"`
	Failed     int           `json:"failed"`
	WellFormed int           `json:"well_formed"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Dispatcher runs validation units.
type Dispatcher struct {
	workers int
	explain  bool
	check    CheckFunc
	progress func(Summary)
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		workers:  opts.Workers,
		explain:  opts.Explain,
		check:    opts.Check,
		progress: opts.Progress,
	}
	if d.workers <= 0 {
		d.workers = -1 // errgroup: no limit
	}
	if d.check == nil {
		d.check = bracket.Check
	}
	return d
}

// outcome is what a unit hands to the collector.
type outcome struct {
	verdict batch.Verdict
	failed  bool
}

// Run validates every item and emits one verdict per successful unit, in
// completion order. The first emit error is returned after all units have
// finished; it does not stop the run.
func (d *Dispatcher) Run(ctx context.Context, items []batch.Item, out Emitter) (Summary, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Dispatcher starting.", "items", len(items), "workers", d.workers)

	start := time.Now()
	summary := Summary{Submitted: len(items)}
	results := make(chan outcome, min(len(items), 1024))

	var emitErr error
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		report := func() {
			if d.progress != nil {
				snapshot := summary
				snapshot.Elapsed = time.Since(start)
				d.progress(snapshot)
			}
		}
		for o := range results {
			if o.failed {
				summary.Failed++
				report()
				if sk, ok := out.(Skipper); ok {
					if err := sk.Skip(ctx, o.verdict.Index); err != nil && emitErr == nil {
						emitErr = err
					}
				}
				continue
			}
			summary.Emitted++
			if o.verdict.WellFormed {
				summary.WellFormed++
			}
			report()
			if err := out.Emit(ctx, o.verdict); err != nil {
				logger.Error("Failed to emit verdict.", "index", o.verdict.Index, "error", err)
				if emitErr == nil {
					emitErr = err
				}
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(d.workers)
	for _, item := range items {
		g.Go(func() error {
			results <- d.unit(ctx, item)
			return nil
		})
	}

	// Units never return errors; Wait is the join barrier.
	_ = g.Wait()
	close(results)
	<-collected

	summary.Elapsed = time.Since(start)
	logger.Debug("Dispatcher finished.", "emitted", summary.Emitted, "failed", summary.Failed)
	return summary, emitErr
}

// unit validates a single item. A panic in the check is recovered and turns
// the outcome into a failure.
func (d *Dispatcher) unit(ctx context.Context, item batch.Item) (o outcome) {
	o.verdict.Index = item.Index + 1
	ctx = ctxlog.With(ctx, "index", o.verdict.Index)
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Validation unit failed.", "panic", r)
			o.failed = true
		}
	}()

	res := d.check(item.Text)
	if d.explain && len(res.Violations) > 0 {
		logger := ctxlog.FromContext(ctx)
		for _, v := range res.Violations {
			logger.Debug("Rule violation.", "pos", v.Pos, "reason", v.Reason.String(), "violation", v.String())
		}
	}
	o.verdict.WellFormed = res.WellFormed
	return o
}
