package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"documentor/internal/config"
	"documentor/internal/crawler"
	"documentor/internal/docblock"
	"documentor/internal/extractor"
	"documentor/internal/generator"
	"documentor/internal/git"
	"documentor/internal/graph"
	"documentor/internal/index"
	"documentor/internal/resolver"
	"documentor/internal/storage"
	"documentor/internal/watch"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:               "documentor",
		Short:             "Render the docblocks of a type's members as Markdown",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	dbPath     string
	configPath string
	logLevel   string
	outDir     string
	withTOC    bool

	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the local type database (SQLite); overrides the config")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "Write one <Type>.md per type into this directory instead of stdout")
	generateCmd.Flags().BoolVar(&withTOC, "toc", false, "Prepend a table of contents")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	logger = setupLogger(logLevel)

	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}
	if cmd.Flags().Changed("toc") {
		cfg.Output.TOC = withTOC
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	return nil
}

func setupLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return l
}

// initStore opens the SQLite store named by the config.
func initStore() (*storage.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Storage.DB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return storage.NewSQLiteStore(cfg.Storage.DB)
}

func newCrawler() (*crawler.Crawler, error) {
	cr, err := crawler.NewCrawler(logger, cfg.Project.Excludes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawler: %w", err)
	}
	return cr, nil
}

func newIndexer() (*index.Indexer, error) {
	cr, err := newCrawler()
	if err != nil {
		return nil, err
	}
	return index.NewIndexer(cr), nil
}

// scannedRoots returns the roots recorded by the last scan.
func scannedRoots(ctx context.Context, store storage.MetaStore) ([]string, error) {
	rootList, ok, err := store.GetMeta(ctx, storage.MetaRoots)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("nothing scanned yet; run `documentor scan` first")
	}
	return strings.Split(rootList, "\n"), nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [roots...]",
	Short: "Scan source roots and store their types locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		roots := cfg.Project.Roots
		if len(args) > 0 {
			roots = args
		}
		roots, err := absPaths(roots)
		if err != nil {
			return err
		}

		store, err := initStore()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		idx, err := newIndexer()
		if err != nil {
			return err
		}

		logger.WithField("roots", roots).Info("scanning")
		start := time.Now()
		g, err := idx.BuildGraph(ctx, roots...)
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		reportGraph(g, time.Since(start))

		if err := store.SaveGraph(ctx, g); err != nil {
			return fmt.Errorf("failed to save graph: %w", err)
		}
		if err := store.SetMeta(ctx, storage.MetaRoots, strings.Join(roots, "\n")); err != nil {
			return err
		}
		if head, err := git.Head(ctx, roots[0]); err != nil {
			logger.WithError(err).Debug("not a git checkout; update will need a rescan")
		} else if err := store.SetMeta(ctx, storage.MetaCommit, head); err != nil {
			return err
		}

		fmt.Printf("Scan complete: %d types in %s\n", len(g.Types()), cfg.Storage.DB)
		return nil
	},
}

func reportGraph(g *graph.Graph, took time.Duration) {
	fields := logrus.Fields{
		"nodes":    len(g.Nodes),
		"types":    len(g.Types()),
		"edges":    len(g.Edges),
		"orphans":  g.OrphanCount(),
		"duration": took,
	}
	for reason, n := range g.UnresolvedReasonCounts() {
		fields["unresolved_"+string(reason)] = n
	}
	logger.WithFields(fields).Info("graph built")
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-extract files changed in git since the last scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := initStore()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		roots, err := scannedRoots(ctx, store)
		if err != nil {
			return err
		}

		base, ok, err := store.GetMeta(ctx, storage.MetaCommit)
		if err != nil {
			return err
		}
		if !ok {
			base = "HEAD"
		}

		changes, err := git.ChangedFiles(ctx, roots[0], base)
		if err != nil {
			return fmt.Errorf("failed to get git changes: %w", err)
		}
		paths := relevantPaths(changes, roots)
		if len(paths) == 0 {
			fmt.Println("No changes detected.")
			return nil
		}
		logger.WithField("files", len(paths)).Info("updating changed files")

		g, err := store.LoadGraph(ctx)
		if err != nil {
			return fmt.Errorf("failed to load graph: %w", err)
		}
		idx, err := newIndexer()
		if err != nil {
			return err
		}
		if err := idx.UpdateFiles(ctx, g, paths); err != nil {
			return err
		}

		if err := store.ReplaceFiles(ctx, paths, unitsIn(g, paths)); err != nil {
			return fmt.Errorf("failed to save updated units: %w", err)
		}
		if head, err := git.Head(ctx, roots[0]); err == nil {
			if err := store.SetMeta(ctx, storage.MetaCommit, head); err != nil {
				return err
			}
		}

		fmt.Printf("Updated %d files.\n", len(paths))
		return nil
	},
}

// relevantPaths keeps the changed source files that live under a root.
func relevantPaths(changes []git.ChangedFile, roots []string) []string {
	var paths []string
	for _, c := range changes {
		if extractor.LanguageForPath(c.Path) == "" {
			continue
		}
		for _, root := range roots {
			if rel, err := filepath.Rel(root, c.Path); err == nil && !strings.HasPrefix(rel, "..") {
				paths = append(paths, c.Path)
				break
			}
		}
	}
	return paths
}

func unitsIn(g *graph.Graph, paths []string) []*extractor.CodeUnit {
	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
	}
	var units []*extractor.CodeUnit
	for _, n := range g.Nodes {
		if wanted[n.Unit.Filepath] {
			units = append(units, n.Unit)
		}
	}
	return units
}

func loadResolver(ctx context.Context) (*resolver.Resolver, *graph.Graph, error) {
	store, err := initStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	g, err := store.LoadGraph(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return resolver.New(g), g, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored types",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, g, err := loadResolver(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tKIND\tMEMBERS\tFILE")
		for _, n := range g.Types() {
			t, err := r.Resolve(cmd.Context(), n.Unit.QualifiedName())
			members := "?"
			if err == nil {
				members = fmt.Sprint(len(r.ListMembers(t)))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s:%d\n", n.Unit.QualifiedName(), n.Unit.UnitType, members, n.Unit.Filepath, n.Unit.StartLine)
		}
		return w.Flush()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <type>...",
	Short: "Generate Markdown documentation for one or more types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, _, err := loadResolver(ctx)
		if err != nil {
			return err
		}

		gen := generator.NewMarkdownGenerator(r,
			generator.WithConverter(docblock.NewConverter(docblock.WithVocabulary(cfg.Vocabulary()))),
			generator.WithWorkers(cfg.Output.Workers),
			generator.WithTOC(cfg.Output.TOC),
			generator.WithLogger(logger),
		)

		toFiles := cmd.Flags().Changed("out")
		for _, typeName := range args {
			if toFiles {
				if _, err := gen.GenerateDocs(ctx, typeName, cfg.Output.Dir); err != nil {
					return explain(err)
				}
				continue
			}
			doc, err := gen.Generate(ctx, typeName)
			if err != nil {
				return explain(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the stored types current while source files change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := initStore()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		roots, err := scannedRoots(ctx, store)
		if err != nil {
			return err
		}
		g, err := store.LoadGraph(ctx)
		if err != nil {
			return fmt.Errorf("failed to load graph: %w", err)
		}

		cr, err := newCrawler()
		if err != nil {
			return err
		}
		idx := index.NewIndexer(cr)

		w, err := watch.New(roots, cr.Ignores, watch.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to watch roots: %w", err)
		}
		defer w.Close()

		logger.WithField("roots", roots).Info("watching for changes")
		err = w.Run(ctx, func(ctx context.Context, paths []string) error {
			if err := idx.UpdateFiles(ctx, g, paths); err != nil {
				return err
			}
			if err := store.ReplaceFiles(ctx, paths, unitsIn(g, paths)); err != nil {
				return err
			}
			logger.WithField("files", paths).Info("updated")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func explain(err error) error {
	var amb *resolver.AmbiguousError
	if errors.As(err, &amb) {
		return fmt.Errorf("%q matches several types, use one of:\n  %s", amb.Name, strings.Join(amb.Candidates, "\n  "))
	}
	if errors.Is(err, resolver.ErrNotFound) {
		return fmt.Errorf("%w (run `documentor scan` if the type is new)", err)
	}
	return err
}
