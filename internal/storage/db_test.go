package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sursaud/internal"
	"sursaud/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "sursaud.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertRunAndList(t *testing.T) {
	db := openTestDB(t)

	merge := internal.StageResult{
		Stage:      internal.StageMerge,
		InputPath:  "CSV",
		OutputPath: "outputs/merged_passages_urgences_clean.csv",
		Rows:       3,
		Columns:    7,
		Duration:   1500 * time.Millisecond,
		Sources: []internal.SourceFile{
			{Name: "a.csv", Reason: "a", SHA256: "aa", Rows: 1},
			{Name: "b.csv", Reason: "b", SHA256: "bb", Rows: 2},
		},
	}
	prepare := internal.StageResult{
		Stage:      internal.StagePrepare,
		InputPath:  merge.OutputPath,
		OutputPath: "outputs/Data_set_final.csv",
		Rows:       1,
		Columns:    11,
	}
	require.NoError(t, db.InsertRun("trace-1", merge))
	require.NoError(t, db.InsertRun("trace-2", prepare))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "trace-2", runs[0].TraceID)
	assert.Equal(t, internal.StagePrepare, runs[0].Stage)
	assert.Equal(t, 11, runs[0].Columns)

	assert.Equal(t, "trace-1", runs[1].TraceID)
	assert.Equal(t, 3, runs[1].Rows)
	assert.Equal(t, int64(1500), runs[1].DurationMs)
	assert.NotEmpty(t, runs[1].CreatedAt)

	sources, err := db.ListSources(runs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, merge.Sources, sources)

	sources, err = db.ListSources(runs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, sources)

	limited, err := db.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReplaceDataset(t *testing.T) {
	db := openTestDB(t)

	date := time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC)
	first := []internal.AnalyticalRow{
		{
			DateSemaine:          &date,
			Region:               util.StringPtr("Île-de-France"),
			ClasseAge:            util.StringPtr("Tous âges"),
			TauxPassagesUrgences: util.FloatPtr(10),
			TauxHospitalisation:  util.FloatPtr(2),
			TauxActesSOSMedecins: util.FloatPtr(0),
			Raison:               util.StringPtr("2021"),
			Annee:                util.IntPtr(2021),
			Mois:                 util.IntPtr(1),
			Semaine:              util.IntPtr(1),
			RatioHosp:            util.FloatPtr(0.2),
		},
		{Region: util.StringPtr("Île-de-France")},
	}
	require.NoError(t, db.ReplaceDataset("trace-1", first))

	n, err := db.CountDataset()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := db.ListDataset()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].DateSemaine)
	assert.True(t, date.Equal(*stored[0].DateSemaine))
	assert.Equal(t, "Tous âges", *stored[0].ClasseAge)
	assert.Equal(t, 2021, *stored[0].Annee)
	assert.InDelta(t, 0.2, *stored[0].RatioHosp, 1e-12)
	assert.Nil(t, stored[1].DateSemaine)
	assert.Nil(t, stored[1].RatioHosp)
	assert.Nil(t, stored[1].Semaine)

	require.NoError(t, db.ReplaceDataset("trace-2", first[:1]))
	n, err = db.CountDataset()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
