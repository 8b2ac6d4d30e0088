package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/wellformed/internal/batch"
	"github.com/vk/wellformed/internal/ctxlog"
	"github.com/vk/wellformed/internal/dispatcher"
	"github.com/vk/wellformed/internal/sink"
)

// Run reads one batch, validates it and writes the verdicts.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	in, closeIn, err := a.openInput()
	if err != nil {
		return err
	}
	defer closeIn()

	header, items, err := batch.Read(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	a.logger.Debug("Input read.", "cases", header.Cases, "samples", header.Samples, "items", len(items))

	out, err := a.buildSink(ctx)
	if err != nil {
		return err
	}

	d := dispatcher.New(dispatcher.Options{
		Workers:  a.config.Workers,
		Explain:  a.config.Explain,
		Progress: func(s dispatcher.Summary) {
			a.last.Store(&s)
		},
	})
	summary, runErr := d.Run(ctx, items, out)
	closeErr := out.Close(ctx)
	a.last.Store(&summary)

	a.logger.Info("Run finished.",
		"submitted", summary.Submitted,
		"emitted", summary.Emitted,
		"failed", summary.Failed,
		"well_formed", summary.WellFormed,
		"elapsed", summary.Elapsed,
	)

	if err := errors.Join(runErr, closeErr); err != nil {
		return fmt.Errorf("failed to deliver verdicts: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// openInput returns the batch source and a function releasing it.
func (a *App) openInput() (io.Reader, func(), error) {
	path := a.appConfig.InputPath
	if path == "" || path == "-" {
		return a.streams.In, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// buildSink assembles the output chain: stdout lines, optionally reordered,
// plus the socket.io publisher when configured.
func (a *App) buildSink(ctx context.Context) (sink.Sink, error) {
	var out sink.Sink = sink.NewLines(a.streams.Out)
	if a.config.Ordered {
		out = sink.NewOrdered(out)
	}
	if a.config.Publish == nil {
		return out, nil
	}

	pub, err := a.dialPublisher(ctx, a.config.Publish)
	if err != nil {
		return nil, fmt.Errorf("failed to start verdict publisher: %w", err)
	}
	return sink.Multi{out, pub}, nil
}
