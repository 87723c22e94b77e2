package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"sursaud/internal"
	"sursaud/internal/config"
)

// Ledger stores what each successful stage produced. *storage.DB implements it.
type Ledger interface {
	InsertRun(traceID string, res internal.StageResult) error
	ReplaceDataset(traceID string, rows []internal.AnalyticalRow) error
}

// Runner chains the stages with the paths from the configuration. A nil
// ledger disables run recording.
type Runner struct {
	cfg    config.Config
	ledger Ledger
	log    *zap.Logger
}

func NewRunner(cfg config.Config, ledger Ledger, log *zap.Logger) *Runner {
	return &Runner{cfg: cfg, ledger: ledger, log: log}
}

func (r *Runner) Merge() (internal.StageResult, error) {
	res, err := NewMergeService(r.cfg.InputDir, r.cfg.MergedPath(), r.log).Run()
	if err != nil {
		return internal.StageResult{}, err
	}
	r.record(traceID(), res)
	return res, nil
}

func (r *Runner) Prepare() (internal.StageResult, error) {
	res, table, err := NewPrepareService(r.cfg.MergedPath(), r.cfg.FinalPath(), r.log).Run()
	if err != nil {
		return internal.StageResult{}, err
	}
	id := traceID()
	r.record(id, res)
	if r.ledger != nil {
		if err := r.ledger.ReplaceDataset(id, AnalyticalRows(table)); err != nil {
			r.log.Warn("Failed to store analysis rows", zap.String("trace_id", id), zap.Error(err))
		}
	}
	return res, nil
}

// Run executes merge then prepare; prepare is skipped when merge fails.
func (r *Runner) Run() ([]internal.StageResult, error) {
	merged, err := r.Merge()
	if err != nil {
		return nil, err
	}
	prepared, err := r.Prepare()
	if err != nil {
		return []internal.StageResult{merged}, err
	}
	return []internal.StageResult{merged, prepared}, nil
}

// ExportXLSX converts the final dataset CSV into a workbook.
func (r *Runner) ExportXLSX() (internal.StageResult, error) {
	start := time.Now()
	input := r.cfg.FinalPath()

	if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
		return internal.StageResult{}, fmt.Errorf("%w: %s", ErrMissingInput, input)
	}
	table, err := ReadTable(input)
	if err != nil {
		return internal.StageResult{}, err
	}
	output := r.cfg.XLSXPath()
	if err := ExportTableToXLSX(table, output); err != nil {
		return internal.StageResult{}, fmt.Errorf("export %s: %w", output, err)
	}

	res := internal.StageResult{
		Stage:      internal.StageExportXLSX,
		InputPath:  input,
		OutputPath: output,
		Rows:       len(table.Rows),
		Columns:    len(table.Columns),
		Duration:   time.Since(start),
	}
	r.record(traceID(), res)
	return res, nil
}

// record is best effort: the CSV outputs are the product, the ledger is not.
func (r *Runner) record(id string, res internal.StageResult) {
	r.log.Info("Stage completed",
		zap.String("stage", res.Stage),
		zap.String("trace_id", id),
		zap.String("output", res.OutputPath),
		zap.Int("rows", res.Rows),
		zap.Int("columns", res.Columns),
		zap.Duration("duration", res.Duration))
	if r.ledger == nil {
		return
	}
	if err := r.ledger.InsertRun(id, res); err != nil {
		r.log.Warn("Failed to record run", zap.String("trace_id", id), zap.Error(err))
	}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
