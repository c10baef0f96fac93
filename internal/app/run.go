package app

import (
	"context"
	"fmt"

	"github.com/vk/metabuild/internal/builder"
	"github.com/vk/metabuild/internal/ctxlog"
	"github.com/vk/metabuild/internal/decode"
	"github.com/vk/metabuild/internal/item"
	"github.com/vk/metabuild/internal/label"
	"github.com/vk/metabuild/internal/loader"
	"github.com/vk/metabuild/internal/scheduler"
)

// Run performs one full graph build on the calling goroutine, which becomes
// the designated goroutine for the duration. It returns the first fatal
// error, or nil once every generated item has resolved.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting graph build.", "root", a.config.RootDir)

	policy, err := a.generatePolicy()
	if err != nil {
		return err
	}

	sched := scheduler.New(a.logger, a.config.Workers)
	ld := loader.New(sched, a.config.RootDir, a.config.SecondaryRootDir)

	// The runner is created after the builder but the builder needs to
	// request loads through it, hence the indirection.
	var runner *decode.Runner
	b := builder.New(
		func(lbl label.Label) { runner.RequestLoad(lbl) },
		policy,
		func(it item.Item) {
			logger.Debug("Item resolved for generation.", "label", it.Label().String())
		},
	)
	runner = decode.NewRunner(sched, ld, b)

	runner.RequestFile(a.config.RootFile)

	runErr := sched.Run()
	sched.Shutdown()
	if runErr != nil {
		return runErr
	}
	if err := b.CheckConsistency(); err != nil {
		return err
	}

	a.printSummary(b)
	logger.Debug("Graph build finished.")
	return nil
}

// generatePolicy builds the default-output policy from the configuration:
// explicit root labels always generate; otherwise targets in the default
// toolchain do.
func (a *App) generatePolicy() (builder.GeneratePolicy, error) {
	rootSet := make(map[label.Label]struct{}, len(a.config.RootLabels))
	for _, raw := range a.config.RootLabels {
		lbl, err := label.Parse(raw, "//")
		if err != nil {
			return nil, fmt.Errorf("invalid root label %q: %w", raw, err)
		}
		rootSet[lbl] = struct{}{}
	}

	var defaultTC label.Label
	if a.config.DefaultToolchain != "" {
		var err error
		defaultTC, err = label.Parse(a.config.DefaultToolchain, "//")
		if err != nil {
			return nil, fmt.Errorf("invalid default toolchain %q: %w", a.config.DefaultToolchain, err)
		}
	}

	return func(it item.Item) bool {
		if _, ok := rootSet[it.Label()]; ok {
			return true
		}
		t, ok := it.(*item.Target)
		if !ok {
			return false
		}
		if t.ToolchainRef == nil {
			return true
		}
		return t.ToolchainRef.Label == defaultTC
	}, nil
}

// printSummary writes the resolved, generated graph in label order, the
// same view downstream generators consume through GetAllResolvedItems.
func (a *App) printSummary(b *builder.Builder) {
	items := b.GetAllResolvedItems()
	for _, it := range items {
		fmt.Fprintf(a.outW, "%s %s\n", it.Kind(), it.Label())
	}
	fmt.Fprintf(a.outW, "%d items resolved\n", len(items))
}
