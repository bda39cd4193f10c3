// =============================================================================
// CSV File Validator - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which validates files as they
// arrive in the input directory.
//
// COMMAND USAGE:
//   csvvalidator watch [flags]
//
// While running, the command serves Prometheus metrics on metrics_addr:
//   GET /metrics  - validation counters and histograms
//   GET /healthz  - liveness and the number of processed files
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ginjaninja78/csv-file-validator/internal/metrics"
	"github.com/ginjaninja78/csv-file-validator/internal/processor"
	"github.com/ginjaninja78/csv-file-validator/internal/server"
	"github.com/ginjaninja78/csv-file-validator/internal/watcher"
	"github.com/ginjaninja78/csv-file-validator/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// processExisting validates the files already waiting at start-up.
var processExisting bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate files as they arrive in the input directory",
	Long: `The watch command validates every file created or modified in the input
directory once it has been quiet for watch_debounce. Reports and archiving
work as for the validate command. Metrics are served on metrics_addr.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&processExisting, "existing", true, "Validate files already in the input directory at start-up")
	watchCmd.Flags().StringVar(&schemaCode, "schema", "", "Validate all files against this schema code")
}

func runWatch(ctx context.Context) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	log := env.logger

	files := utils.NewFileManager(env.main.InputDir, env.main.OutputDir, env.main.InputArchiveDir, env.main.OutputArchiveDir)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts := processor.Options{
		Logger:  log,
		Metrics: metrics.New(reg),
		Files:   files,
	}

	var processed atomic.Int64
	srv := server.New(env.main.MetricsAddr, reg, func() map[string]any {
		return map[string]any{"processed": processed.Load()}
	}, log)
	srv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	// inFlight keeps a file from being validated twice at the same time
	// when a start-up scan and a write event overlap.
	var inFlight sync.Map
	sem := make(chan struct{}, env.main.MaxConcurrency)
	handle := func(path string) {
		if _, busy := inFlight.LoadOrStore(path, struct{}{}); busy {
			return
		}
		defer inFlight.Delete(path)

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-sem }()

		schema, err := env.selectSchema(path, schemaCode)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping file")
			opts.Metrics.ObserveFailure("")
			return
		}

		processor.New(path, schema, env.main, opts).Run(ctx)
		processed.Add(1)
	}

	fw, err := watcher.New(watcher.Config{
		Dir:        env.main.InputDir,
		Debounce:   env.main.WatchDebounce,
		Extensions: utils.DefaultExtensions,
	}, log)
	if err != nil {
		return err
	}

	var jobs jobGroup
	track := func(path string) {
		jobs.run(func() { handle(path) })
	}
	defer func() {
		log.Debug().Msg("waiting for running validations")
		jobs.wait()
	}()

	if processExisting {
		existing, err := files.DiscoverInputFiles()
		if err != nil {
			return err
		}
		for _, path := range existing {
			go track(path)
		}
	}

	err = fw.Watch(ctx, track)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// jobGroup tracks running validations so shutdown can wait for them. Once
// wait has been called, run no longer starts new work.
type jobGroup struct {
	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup
}

// run calls fn unless the group is closed, and reports whether it did.
func (g *jobGroup) run(fn func()) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	g.running.Add(1)
	g.mu.Unlock()

	defer g.running.Done()
	fn()
	return true
}

// wait closes the group and blocks until every started fn has returned.
func (g *jobGroup) wait() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.running.Wait()
}
