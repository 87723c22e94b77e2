package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sursaud/internal"
	"sursaud/internal/util"
)

// NormalizeStats counts the cells that were present in a source file but
// could not be read and therefore became null.
type NormalizeStats struct {
	Rows         int
	DateNulls    int
	RateNulls    int
	DateSource   string
	MissingRates []string
}

// NormalizeFile reads one source extract and maps it onto the canonical schema.
func NormalizeFile(path string) ([]internal.CanonicalRow, internal.SourceFile, NormalizeStats, error) {
	name := filepath.Base(path)
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, internal.SourceFile{}, NormalizeStats{}, err
	}
	sum := sha256.Sum256(blob)

	table, err := ParseTable(blob)
	if err != nil {
		return nil, internal.SourceFile{}, NormalizeStats{}, err
	}

	reason := ReasonFromName(name)
	rows, stats := NormalizeTable(table, reason)

	source := internal.SourceFile{
		Name:   name,
		Reason: reason,
		SHA256: hex.EncodeToString(sum[:]),
		Rows:   len(rows),
	}
	return rows, source, stats, nil
}

// NormalizeTable maps a source table onto canonical rows tagged with reason.
func NormalizeTable(t *internal.Table, reason string) ([]internal.CanonicalRow, NormalizeStats) {
	stats := NormalizeStats{Rows: len(t.Rows)}

	var dateOf func(row []string) *time.Time
	switch {
	case t.Has(SourceFirstDay):
		idx := t.Index(SourceFirstDay)
		stats.DateSource = SourceFirstDay
		dateOf = func(row []string) *time.Time { return ParseDate(cell(row, idx)) }
	case t.Has(SourceWeek):
		idx := t.Index(SourceWeek)
		stats.DateSource = SourceWeek
		dateOf = func(row []string) *time.Time { return ISOWeekToDate(cell(row, idx)) }
	case t.Has(SourceYear):
		idx := t.Index(SourceYear)
		stats.DateSource = SourceYear
		dateOf = func(row []string) *time.Time { return YearStart(cell(row, idx)) }
	default:
		dateOf = func([]string) *time.Time { return nil }
	}

	regionIdx := t.Index(SourceRegion)
	ageIdx := t.Index(SourceClasseAge)
	rateIdx := make(map[string]int, 3)
	for _, prefix := range []string{PrefixPassages, PrefixHospit, PrefixActesSOS} {
		rateIdx[prefix] = -1
		if col, ok := PickFirstColumn(t.Columns, prefix); ok {
			rateIdx[prefix] = t.Index(col)
		} else {
			stats.MissingRates = append(stats.MissingRates, prefix)
		}
	}

	rate := func(row []string, prefix string) *float64 {
		idx := rateIdx[prefix]
		if idx < 0 {
			return nil
		}
		raw := cell(row, idx)
		v := util.ParseNumberPtr(raw)
		if v == nil && util.NormalizeValue(raw) != "" {
			stats.RateNulls++
		}
		return v
	}

	out := make([]internal.CanonicalRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		date := dateOf(row)
		if date == nil && stats.DateSource != "" {
			stats.DateNulls++
		}
		out = append(out, internal.CanonicalRow{
			DateSemaine:          date,
			Region:               textCell(row, regionIdx),
			ClasseAge:            textCell(row, ageIdx),
			TauxPassagesUrgences: rate(row, PrefixPassages),
			TauxHospitalisation:  rate(row, PrefixHospit),
			TauxActesSOSMedecins: rate(row, PrefixActesSOS),
			Raison:               reason,
		})
	}
	return out, stats
}

// CanonicalRecord serializes a canonical row in CanonicalColumns order.
func CanonicalRecord(r internal.CanonicalRow) []string {
	return []string{
		FormatDate(r.DateSemaine),
		util.DerefString(r.Region),
		util.DerefString(r.ClasseAge),
		util.FormatNumberPtr(r.TauxPassagesUrgences),
		util.FormatNumberPtr(r.TauxHospitalisation),
		util.FormatNumberPtr(r.TauxActesSOSMedecins),
		r.Raison,
	}
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// textCell copies a region or age class through, only trimming surrounding
// blanks. Spelling variants are reconciled when Stage B compares values.
func textCell(row []string, idx int) *string {
	v := strings.TrimSpace(cell(row, idx))
	if v == "" {
		return nil
	}
	return &v
}
