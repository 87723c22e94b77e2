package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"sursaud/internal"
)

var ErrNoCSVFiles = errors.New("no CSV files found")

type MergeService struct {
	inputDir   string
	outputPath string
	log        *zap.Logger
}

func NewMergeService(inputDir, outputPath string, log *zap.Logger) *MergeService {
	return &MergeService{inputDir: inputDir, outputPath: outputPath, log: log}
}

// Run merges every CSV of the input directory into the canonical table and
// writes it. Nothing is written when the directory holds no CSV file.
func (s *MergeService) Run() (internal.StageResult, error) {
	start := time.Now()

	files, err := ListCSVFiles(s.inputDir)
	if err != nil {
		return internal.StageResult{}, err
	}
	if len(files) == 0 {
		return internal.StageResult{}, fmt.Errorf("%w in %s", ErrNoCSVFiles, s.inputDir)
	}

	table, sources, err := MergeFiles(files, s.log)
	if err != nil {
		return internal.StageResult{}, err
	}

	if err := WriteTable(s.outputPath, table); err != nil {
		return internal.StageResult{}, fmt.Errorf("write %s: %w", s.outputPath, err)
	}

	return internal.StageResult{
		Stage:      internal.StageMerge,
		InputPath:  s.inputDir,
		OutputPath: s.outputPath,
		Rows:       len(table.Rows),
		Columns:    len(table.Columns),
		Duration:   time.Since(start),
		Sources:    sources,
	}, nil
}

// ListCSVFiles returns the *.csv files directly under dir, sorted by name.
// dir is taken literally, glob metacharacters included.
func ListCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if ok, _ := filepath.Match("*.csv", e.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// MergeFiles normalizes each file and concatenates the rows in the given
// order, keeping each file's row order.
func MergeFiles(paths []string, log *zap.Logger) (*internal.Table, []internal.SourceFile, error) {
	table := &internal.Table{Columns: append([]string(nil), internal.CanonicalColumns[:]...)}
	sources := make([]internal.SourceFile, 0, len(paths))

	for _, path := range paths {
		rows, source, stats, err := NormalizeFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize %s: %w", path, err)
		}
		for _, row := range rows {
			table.Rows = append(table.Rows, CanonicalRecord(row))
		}
		sources = append(sources, source)

		log.Debug("Normalized source file",
			zap.String("file", source.Name),
			zap.String("raison", source.Reason),
			zap.Int("rows", source.Rows),
			zap.String("date_source", stats.DateSource),
			zap.Strings("missing_rates", stats.MissingRates))
		if stats.DateNulls > 0 || stats.RateNulls > 0 {
			log.Info("Unreadable cells set to null",
				zap.String("file", source.Name),
				zap.Int("date_nulls", stats.DateNulls),
				zap.Int("rate_nulls", stats.RateNulls),
				zap.Int("total_rows", stats.Rows))
		}
	}

	return table, sources, nil
}
