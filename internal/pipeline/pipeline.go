package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/ipcgen/internal/analyzer"
	"github.com/mvp-joe/ipcgen/internal/generator"
)

// ErrNoInputs is returned when no input file could be parsed. Callers treat
// this differently from generation failures: watch mode keeps running,
// one-shot generation exits nonzero.
var ErrNoInputs = errors.New("no parsable input files")

const defaultParseWorkers = 8

// Options configures a single pipeline run.
type Options struct {
	// Files holds the source files to analyze, as absolute paths.
	Files []string

	// DefaultNamespace is applied to free functions and lambdas whose expose
	// marker carries no namespace argument.
	DefaultNamespace string

	// RuntimeModule is the import specifier for the runtime controllers.
	RuntimeModule string

	// Artifact destinations, as absolute paths.
	HostPath   string
	ClientPath string
	TypesPath  string

	// AsyncStreams additionally accepts AsyncIterableIterator returns.
	AsyncStreams bool

	// ParseWorkers bounds parse concurrency. Zero means the default.
	ParseWorkers int

	Logger *zap.Logger

	// OnFileParsed is invoked after each file finishes parsing, successfully
	// or not. Used for progress reporting. May be nil.
	OnFileParsed func(path string)
}

// Artifact describes one generated output file.
type Artifact struct {
	Path string
	// Written is false when the file already held identical content.
	Written bool
}

// Result summarizes a pipeline run.
type Result struct {
	FilesParsed  int
	FilesSkipped int
	Functions    int
	Namespaces   int
	Warnings     int
	Artifacts    []Artifact
}

// Run executes the full pipeline: parse, scan, group, generate, write. The
// three artifacts are always regenerated together so the channel keys they
// share stay in agreement.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultNamespace == "" {
		opts.DefaultNamespace = "mainProcess"
	}

	files, skipped, err := parseAll(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	program := analyzer.NewProgram(files, logger)
	defer program.Close()

	extractor := analyzer.NewExtractor(program)
	scanner := analyzer.NewScanner(program, extractor, analyzer.ScannerOptions{
		AsyncStreams: opts.AsyncStreams,
	}, logger)
	functions := scanner.Scan()
	groups := generator.Group(functions, opts.DefaultNamespace)

	gen := &generator.Generator{
		RuntimeModule: opts.RuntimeModule,
		HostDir:       filepath.Dir(opts.HostPath),
		ClientDir:     filepath.Dir(opts.ClientPath),
		TypesDir:      filepath.Dir(opts.TypesPath),
	}

	result := &Result{
		FilesParsed:  len(files),
		FilesSkipped: skipped,
		Functions:    len(functions),
		Namespaces:   len(groups),
		Warnings:     scanner.Warnings(),
	}

	writer := &AtomicWriter{}
	outputs := []struct {
		path string
		text string
	}{
		{opts.HostPath, gen.Host(groups)},
		{opts.ClientPath, gen.Client(groups)},
		{opts.TypesPath, gen.Declarations(groups)},
	}
	for _, out := range outputs {
		written, err := writer.Write(out.path, []byte(out.text))
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", out.path, err)
		}
		result.Artifacts = append(result.Artifacts, Artifact{Path: out.path, Written: written})
		logger.Debug("artifact generated",
			zap.String("path", out.path),
			zap.Bool("written", written))
	}

	return result, nil
}

// parseAll parses the input files concurrently. Unreadable or unparsable
// files are skipped with a warning rather than failing the run, so one bad
// file cannot block regeneration of everything else.
func parseAll(ctx context.Context, opts Options, logger *zap.Logger) ([]*analyzer.SourceFile, int, error) {
	workers := opts.ParseWorkers
	if workers <= 0 {
		workers = defaultParseWorkers
	}

	var mu sync.Mutex
	parsed := make([]*analyzer.SourceFile, 0, len(opts.Files))
	skipped := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range opts.Files {
		g.Go(func() error {
			f, err := analyzer.ParseFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				skipped++
				logger.Warn("skipping input file",
					zap.String("file", path),
					zap.Error(err))
			} else {
				parsed = append(parsed, f)
			}
			if opts.OnFileParsed != nil {
				opts.OnFileParsed(path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range parsed {
			f.Close()
		}
		return nil, 0, err
	}

	// Parse order is nondeterministic; downstream ordering contracts start
	// from sorted file paths.
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Path < parsed[j].Path })
	return parsed, skipped, nil
}
