package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sursaud/internal"
	"sursaud/internal/config"
	"sursaud/internal/logging"
	"sursaud/internal/pipeline"
	"sursaud/internal/storage"
)

type app struct {
	cfg    config.Config
	log    *zap.Logger
	ledger *lazyLedger
	runner *pipeline.Runner
}

// lazyLedger opens the database on first use, so a stage that fails its
// preconditions leaves nothing on disk.
type lazyLedger struct {
	path   string
	db     *storage.DB
	err    error
	opened bool
}

func (l *lazyLedger) open() (*storage.DB, error) {
	if !l.opened {
		l.opened = true
		l.db, l.err = storage.Open(l.path)
	}
	return l.db, l.err
}

func (l *lazyLedger) InsertRun(traceID string, res internal.StageResult) error {
	db, err := l.open()
	if err != nil {
		return err
	}
	return db.InsertRun(traceID, res)
}

func (l *lazyLedger) ReplaceDataset(traceID string, rows []internal.AnalyticalRow) error {
	db, err := l.open()
	if err != nil {
		return err
	}
	return db.ReplaceDataset(traceID, rows)
}

// execute runs the command line args and releases the logger and the ledger
// whatever the outcome.
func execute(args []string, stdout io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sursaud",
		Short: "Merge and prepare SurSaUD regional emergency extracts",
		Long: `Stage A (merge) normalizes every CSV of the input directory into one
seven-column table. Stage B (prepare) keeps Île-de-France / Tous âges rows and
adds calendar fields and the hospitalisation ratio.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "merge",
			Short: "Merge the input directory into the canonical CSV",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := a.runner.Merge()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
				return nil
			},
		},
		&cobra.Command{
			Use:   "prepare",
			Short: "Filter and enrich the merged CSV into the final dataset",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := a.runner.Prepare()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
				return nil
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run merge then prepare",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				results, err := a.runner.Run()
				for _, res := range results {
					fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "export:xlsx",
			Short: "Write the final dataset as an Excel workbook",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := a.runner.ExportXLSX()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
				return nil
			},
		},
		newRunsCmd(a),
	)

	return root
}

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit   int
		sources bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded stage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.ledger == nil {
				return errors.New("run ledger is disabled (SURSAUD_RECORD_RUNS=false)")
			}
			db, err := a.ledger.open()
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			runs, err := db.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "#%d %s %-11s rows=%d columns=%d duration=%dms trace=%s output=%s\n",
					r.ID, r.CreatedAt, r.Stage, r.Rows, r.Columns, r.DurationMs, r.TraceID, r.OutputPath)
				if !sources {
					continue
				}
				files, err := db.ListSources(r.ID)
				if err != nil {
					return fmt.Errorf("list sources of run %d: %w", r.ID, err)
				}
				for _, f := range files {
					fmt.Fprintf(out, "    %s raison=%s rows=%d sha256=%s\n", f.Name, f.Reason, f.Rows, f.SHA256)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&sources, "sources", false, "also list the source files of each run")
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log

	var ledger pipeline.Ledger
	if cfg.RecordRuns {
		a.ledger = &lazyLedger{path: cfg.DBPath}
		ledger = a.ledger
	}

	a.runner = pipeline.NewRunner(cfg, ledger, log.With(zap.String("command", cmd.Name())))
	return nil
}

func (a *app) close() {
	if a.ledger != nil && a.ledger.db != nil {
		if err := a.ledger.db.Close(); err != nil {
			a.log.Warn("Failed to close run ledger", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
