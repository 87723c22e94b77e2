package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"sursaud/internal"
	"sursaud/internal/util"
)

var ErrMissingInput = errors.New("missing input file")

type PrepareService struct {
	inputPath  string
	outputPath string
	log        *zap.Logger
}

func NewPrepareService(inputPath, outputPath string, log *zap.Logger) *PrepareService {
	return &PrepareService{inputPath: inputPath, outputPath: outputPath, log: log}
}

// Run reads the merged table, filters and enriches it, and writes the final
// dataset. The merged file must exist: prepare never runs ahead of merge.
func (s *PrepareService) Run() (internal.StageResult, *internal.Table, error) {
	start := time.Now()

	if _, err := os.Stat(s.inputPath); errors.Is(err, os.ErrNotExist) {
		return internal.StageResult{}, nil, fmt.Errorf("%w: %s", ErrMissingInput, s.inputPath)
	}

	input, err := ReadTable(s.inputPath)
	if err != nil {
		return internal.StageResult{}, nil, err
	}

	table, stats := Prepare(input)
	s.log.Info("Prepared analysis dataset",
		zap.Int("input_rows", stats.InputRows),
		zap.Int("dropped_region", stats.DroppedRegion),
		zap.Int("dropped_age", stats.DroppedAge),
		zap.Int("filled_actes", stats.FilledActes),
		zap.Int("dropped_missing_passages", stats.DroppedPassages),
		zap.Strings("skipped_steps", stats.Skipped))

	if err := WriteTable(s.outputPath, table); err != nil {
		return internal.StageResult{}, nil, fmt.Errorf("write %s: %w", s.outputPath, err)
	}

	return internal.StageResult{
		Stage:      internal.StagePrepare,
		InputPath:  s.inputPath,
		OutputPath: s.outputPath,
		Rows:       len(table.Rows),
		Columns:    len(table.Columns),
		Duration:   time.Since(start),
	}, table, nil
}

type PrepareStats struct {
	InputRows       int
	DroppedRegion   int
	DroppedAge      int
	FilledActes     int
	DroppedPassages int
	// Skipped lists the steps whose column was absent.
	Skipped []string
}

// Prepare applies the filter and enrichment steps in order. Each step runs
// only when its column exists; the input table is not modified.
func Prepare(in *internal.Table) (*internal.Table, PrepareStats) {
	t := &internal.Table{Columns: append([]string(nil), in.Columns...)}
	for _, row := range in.Rows {
		r := make([]string, len(t.Columns))
		copy(r, row)
		t.Rows = append(t.Rows, r)
	}
	stats := PrepareStats{InputRows: len(t.Rows)}

	skip := func(step string) { stats.Skipped = append(stats.Skipped, step) }

	if idx := t.Index(internal.ColRegion); idx >= 0 {
		stats.DroppedRegion = filterRows(t, func(row []string) bool {
			return util.NormalizeValue(row[idx]) == internal.TargetRegion
		})
	} else {
		skip("filter_region")
	}

	if idx := t.Index(internal.ColClasseAge); idx >= 0 {
		stats.DroppedAge = filterRows(t, func(row []string) bool {
			return util.NormalizeValue(row[idx]) == internal.TargetAgeClass
		})
	} else {
		skip("filter_age")
	}

	if idx := t.Index(internal.ColTauxActesSOS); idx >= 0 {
		for _, row := range t.Rows {
			if strings.TrimSpace(row[idx]) == "" {
				row[idx] = "0"
				stats.FilledActes++
			}
		}
	} else {
		skip("fill_actes")
	}

	if idx := t.Index(internal.ColTauxPassages); idx >= 0 {
		stats.DroppedPassages = filterRows(t, func(row []string) bool {
			return strings.TrimSpace(row[idx]) != ""
		})
	} else {
		skip("drop_missing_passages")
	}

	if idx := t.Index(internal.ColDateSemaine); idx >= 0 {
		dates := make([]*time.Time, len(t.Rows))
		for i, row := range t.Rows {
			dates[i] = ParseDate(row[idx])
			row[idx] = FormatDate(dates[i])
		}
		deriveColumn(t, internal.ColAnnee, func(i int, _ []string) string {
			if dates[i] == nil {
				return ""
			}
			return strconv.Itoa(dates[i].Year())
		})
		deriveColumn(t, internal.ColMois, func(i int, _ []string) string {
			if dates[i] == nil {
				return ""
			}
			return strconv.Itoa(int(dates[i].Month()))
		})
		deriveColumn(t, internal.ColSemaine, func(i int, _ []string) string {
			if dates[i] == nil {
				return ""
			}
			_, week := dates[i].ISOWeek()
			return strconv.Itoa(week)
		})
	} else {
		skip("calendar_fields")
	}

	hospIdx, passIdx := t.Index(internal.ColTauxHospit), t.Index(internal.ColTauxPassages)
	if hospIdx >= 0 && passIdx >= 0 {
		deriveColumn(t, internal.ColRatioHosp, func(_ int, row []string) string {
			hosp, ok := util.ParseNumber(row[hospIdx])
			if !ok {
				return ""
			}
			passages, ok := util.ParseNumber(row[passIdx])
			if !ok {
				return ""
			}
			return util.FormatNumber(hosp / passages)
		})
	} else {
		skip("ratio_hosp")
	}

	return t, stats
}

// filterRows keeps the rows for which keep is true and returns how many
// were dropped.
func filterRows(t *internal.Table, keep func(row []string) bool) int {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	dropped := len(t.Rows) - len(kept)
	t.Rows = kept
	return dropped
}

// deriveColumn sets column name from value, appending the column when the
// table does not have it yet.
func deriveColumn(t *internal.Table, name string, value func(i int, row []string) string) {
	idx := t.Index(name)
	if idx < 0 {
		t.Columns = append(t.Columns, name)
		idx = len(t.Columns) - 1
	}
	for i, row := range t.Rows {
		if idx >= len(row) {
			row = append(row, make([]string, idx+1-len(row))...)
		}
		row[idx] = value(i, row)
		t.Rows[i] = row
	}
}
