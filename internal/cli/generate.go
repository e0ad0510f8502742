package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/ipcgen/internal/config"
	"github.com/mvp-joe/ipcgen/internal/pipeline"
)

var quietFlag bool

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the host, client and type declaration modules",
	Long: `Generate scans the project's TypeScript sources for expose markers and
writes three synchronized modules:

  - host registrations:  binds every exposed function to its IPC channel
  - client bridge:       typed namespace objects forwarding over IPC
  - type declarations:   ambient bridge interfaces and the global surface

Files that already hold identical content are left untouched.

Examples:
  # Generate for the current directory
  ipcgen generate

  # Generate with progress bars disabled
  ipcgen generate --quiet

  # Generate for a specific project
  ipcgen generate --root /path/to/project
`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling generation...")
		cancel()
	}()

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

	files, err := discoverSources(root, cfg)
	if err != nil {
		return err
	}

	progress := NewCLIProgressReporter(quietFlag)
	progress.OnParseStart(len(files))

	result, err := pipeline.Run(ctx, pipelineOptions(root, cfg, files, logger, progress.OnFileParsed))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("generation cancelled")
		}
		if errors.Is(err, pipeline.ErrNoInputs) {
			return fmt.Errorf("no source files matched the configured include patterns")
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	progress.OnComplete(result)
	return nil
}

// discoverSources applies the configured include and ignore globs under root.
func discoverSources(root string, cfg *config.Config) ([]string, error) {
	discovery, err := pipeline.NewFileDiscovery(root, cfg.Source.Include, cfg.Source.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid source patterns: %w", err)
	}
	files, err := discovery.Discover()
	if err != nil {
		return nil, fmt.Errorf("source discovery failed: %w", err)
	}
	return files, nil
}

// pipelineOptions maps the loaded configuration onto one pipeline run.
func pipelineOptions(root string, cfg *config.Config, files []string, logger *zap.Logger, onParsed func(string)) pipeline.Options {
	return pipeline.Options{
		Files:            files,
		DefaultNamespace: cfg.DefaultNamespace,
		RuntimeModule:    cfg.Runtime.Module,
		HostPath:         absOutput(root, cfg.Output.Host),
		ClientPath:       absOutput(root, cfg.Output.Client),
		TypesPath:        absOutput(root, cfg.Output.Types),
		AsyncStreams:     cfg.Capabilities.AsyncStreams,
		Logger:           logger,
		OnFileParsed:     onParsed,
	}
}
