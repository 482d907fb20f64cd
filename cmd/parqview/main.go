package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/rebeliceyang/parqview/internal/app"
	"github.com/rebeliceyang/parqview/internal/config"
	"github.com/rebeliceyang/parqview/internal/db/connection"
	"github.com/rebeliceyang/parqview/internal/errclass"
	"github.com/rebeliceyang/parqview/internal/export"
	"github.com/rebeliceyang/parqview/internal/history"
	"github.com/rebeliceyang/parqview/internal/logging"
	"github.com/rebeliceyang/parqview/internal/session"
	"github.com/rebeliceyang/parqview/internal/source"
	"github.com/rebeliceyang/parqview/internal/views"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.GetDefaults()
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	headless := opts.exportPath != "" || opts.history > 0
	logFile := ""
	if !headless {
		if logFile, err = cfg.LogPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	closer, err := logging.Setup(cfg.Log.Level, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = closer.Close() }()

	store := openHistory(cfg)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	if opts.history > 0 {
		return printHistory(store, opts.history)
	}

	src, err := resolveSource(opts.source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = src.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := connection.NewPool(ctx, connection.Config{
		Threads:     cfg.Performance.DuckDBThreads,
		MemoryLimit: cfg.Performance.DuckDBMemoryLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = pool.Close() }()
	if threads, err := pool.Setting(ctx, "threads"); err == nil {
		log.Debug().Str("threads", threads).Msg("engine ready")
	}

	sessOpts := session.Options{
		ChunkSize:            cfg.Data.ChunkSize,
		LoadAllBatchSize:     cfg.Data.LoadAllBatchSize,
		LoadAllWarnThreshold: int64(cfg.Data.LoadAllWarnThreshold),
		MaxColumns:           cfg.Data.MaxColumns,
		CategoricalThreshold: cfg.Data.CategoricalThreshold,
		Timeout:              cfg.QueryTimeout(),
	}
	if src.IsRemote() {
		sessOpts.Prepare = func(ctx context.Context, _ string) error {
			return pool.EnableRemote(ctx)
		}
	}
	if store != nil {
		sessOpts.Recorder = store.Recorder(cfg.History.SaveFailedQueries)
	}
	sess := session.New(pool, sessOpts)

	if headless {
		return exportHeadless(ctx, sess, src, opts)
	}
	return runTUI(cfg, sess, src)
}

func resolveSource(ref string) (source.Source, error) {
	if ref == "-" {
		return source.FromReader(os.Stdin, "")
	}
	return source.Resolve(ref)
}

// openHistory opens the statement log. History is optional, so failures
// are logged and nil is returned.
func openHistory(cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	path, err := cfg.HistoryPath()
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0755)
	}
	if err != nil {
		log.Warn().Err(err).Msg("query history disabled")
		return nil
	}

	store, err := history.NewStore(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("query history disabled")
		return nil
	}
	if n, err := store.Prune(cfg.History.MaxEntries); err != nil {
		log.Warn().Err(err).Msg("failed to prune query history")
	} else if n > 0 {
		log.Debug().Int64("removed", n).Msg("pruned query history")
	}
	return store
}

func printHistory(store *history.Store, limit int) int {
	if store == nil {
		fmt.Fprintln(os.Stderr, "Error: query history is disabled")
		return 1
	}
	entries, err := store.GetRecent(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed: " + e.ErrorMessage
		}
		fmt.Printf("%s  %6dms  %5d rows  %s\n  %s\n",
			e.ExecutedAt.Local().Format(time.DateTime), e.Duration.Milliseconds(), e.RowsReturned, status, e.Query)
	}
	return 0
}

// exportHeadless loads the source, applies --sort and --filter, loads every
// matching row and writes them to --export
func exportHeadless(ctx context.Context, sess *session.Session, src source.Source, opts options) int {
	format, err := exportFormat(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	sortSpec, err := parseSort(opts.sort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	snap, err := sess.Load(ctx, src.Ref)
	if err != nil {
		return reportFailure(err, src)
	}
	if snap.State == session.EmptySchema {
		fmt.Fprintln(os.Stderr, "Error: the file has no columns")
		return 1
	}

	if snap.State == session.Ready && (sortSpec.IsSorted() || len(opts.filters) > 0) {
		filters, err := buildFilters(opts.filters, snap.Meta)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		if snap, err = sess.Apply(ctx, sortSpec, filters); err != nil {
			return reportFailure(err, src)
		}
	}

	if snap.CanLoadMore {
		snap, err = sess.LoadAll(ctx, session.LoadAllOptions{
			Confirmed: true,
			OnProgress: func(p session.Progress) {
				log.Debug().Int64("loaded", p.Loaded).Int64("total", p.Total).Msg("loading rows")
			},
		})
		if err != nil {
			return reportFailure(err, src)
		}
	}

	if err := export.ToFile(opts.exportPath, format, export.Table{
		Title:   src.Name,
		Columns: snap.Columns,
		Rows:    snap.Rows,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.showSQL {
		fmt.Println(snap.LastSQL)
	}
	log.Info().Str("path", opts.exportPath).Int("rows", len(snap.Rows)).Msg("export complete")
	return 0
}

func exportFormat(opts options) (export.Format, error) {
	if opts.format != "" {
		return export.ParseFormat(opts.format)
	}
	return export.FormatForPath(opts.exportPath)
}

func reportFailure(err error, src source.Source) int {
	d := errclass.Describe(err, src.Name)
	fmt.Fprintln(os.Stderr, d.Text())
	return 1
}

func runTUI(cfg *config.Config, sess *session.Session, src source.Source) int {
	var manager *views.Manager
	if dir, err := config.GetConfigPath(); err == nil {
		if manager, err = views.NewManager(dir); err != nil {
			log.Warn().Err(err).Msg("saved views disabled")
			manager = nil
		}
	}

	model := app.New(app.Deps{
		Config:  cfg,
		Session: sess,
		Source:  src,
		Views:   manager,
	})
	defer model.Close()

	teaOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		teaOpts = append(teaOpts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(model, teaOpts...)
	model.SetSender(p.Send)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	return 0
}
