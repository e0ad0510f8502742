package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/ipcgen/internal/config"
	"github.com/mvp-joe/ipcgen/internal/pipeline"
	"github.com/mvp-joe/ipcgen/internal/scheduler"
	"github.com/mvp-joe/ipcgen/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate continuously as source files change",
	Long: `Watch runs an initial generation, then monitors the project's source
files and regenerates whenever they change. Change bursts are debounced
and regenerations never overlap: edits arriving during a run coalesce
into a single follow-up run.

A failed regeneration is logged and watching continues.

Examples:
  # Watch the current directory
  ipcgen watch

  # Watch a specific project
  ipcgen watch --root /path/to/project
`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	regenerate := func(ctx context.Context, changed []string) error {
		files, err := discoverSources(root, cfg)
		if err != nil {
			return err
		}
		result, err := pipeline.Run(ctx, pipelineOptions(root, cfg, files, logger, nil))
		if err != nil {
			// An empty project is not fatal in watch mode; files may appear.
			if errors.Is(err, pipeline.ErrNoInputs) {
				logger.Warn("no source files matched, waiting for changes")
				return nil
			}
			return err
		}

		written := 0
		for _, art := range result.Artifacts {
			if art.Written {
				written++
			}
		}
		logger.Info("regeneration complete",
			zap.Int("functions", result.Functions),
			zap.Int("namespaces", result.Namespaces),
			zap.Int("changedFiles", len(changed)),
			zap.Int("artifactsWritten", written),
			zap.Int("warnings", result.Warnings))
		return nil
	}

	sched := scheduler.New(regenerate, logger)
	defer sched.Close()

	// Never report our own artifact writes back as source changes.
	ignore := []string{
		absOutput(root, cfg.Output.Host),
		absOutput(root, cfg.Output.Client),
		absOutput(root, cfg.Output.Types),
	}
	fw, err := watcher.NewFileWatcher([]string{root}, cfg.GetSourceExtensions(), ignore, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	if err := fw.Start(ctx, func(files []string) {
		sched.Trigger(files)
	}); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	// Initial generation before the first change arrives.
	initial := sched.Trigger(nil)
	select {
	case <-initial.Done():
		if err := initial.Err(); err != nil && !errors.Is(err, scheduler.ErrClosed) {
			logger.Warn("initial generation failed", zap.Error(err))
		}
	case <-ctx.Done():
		return nil
	}

	if !quietFlag {
		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	}

	<-ctx.Done()
	return nil
}
