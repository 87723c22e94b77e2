package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sursaud/internal"
)

func canonicalTable(rows ...[]string) *internal.Table {
	return &internal.Table{Columns: append([]string(nil), internal.CanonicalColumns[:]...), Rows: rows}
}

func column(t *testing.T, table *internal.Table, row int, name string) string {
	t.Helper()
	idx := table.Index(name)
	require.GreaterOrEqual(t, idx, 0, "missing column %s", name)
	return table.Rows[row][idx]
}

func TestPrepareScenario(t *testing.T) {
	in := canonicalTable([]string{"2021-01-04", "Île-de-France", "Tous âges", "10", "2", "", "2021"})

	out, stats := Prepare(in)
	require.Len(t, out.Rows, 1)

	assert.Equal(t, "0.2", column(t, out, 0, internal.ColRatioHosp))
	assert.Equal(t, "2021", column(t, out, 0, internal.ColAnnee))
	assert.Equal(t, "1", column(t, out, 0, internal.ColMois))
	assert.Equal(t, "1", column(t, out, 0, internal.ColSemaine))
	assert.Equal(t, "0", column(t, out, 0, internal.ColTauxActesSOS))
	assert.Equal(t, 1, stats.FilledActes)
	assert.Empty(t, stats.Skipped)

	assert.Equal(t, append(internal.CanonicalColumns[:], "annee", "mois", "semaine", "ratio_hosp"), out.Columns)
}

func TestPrepareFilters(t *testing.T) {
	in := canonicalTable(
		[]string{"2021-01-04", "Bretagne", "Tous âges", "10", "2", "1", "a"},
		[]string{"2021-01-04", "Île-de-France", "0-4 ans", "10", "2", "1", "a"},
		[]string{"2021-01-04", "Île-de-France", "Tous âges", "", "2", "1", "a"},
		[]string{"2021-01-11", "Île-de-France", "Tous âges", "5", "", "1", "a"},
	)

	out, stats := Prepare(in)
	require.Len(t, out.Rows, 1)

	assert.Equal(t, "2021-01-11", column(t, out, 0, internal.ColDateSemaine))
	assert.Equal(t, "", column(t, out, 0, internal.ColRatioHosp))
	assert.Equal(t, "2", column(t, out, 0, internal.ColSemaine))
	assert.Equal(t, 1, stats.DroppedRegion)
	assert.Equal(t, 1, stats.DroppedAge)
	assert.Equal(t, 1, stats.DroppedPassages)
	assert.Len(t, in.Rows, 4, "input table must not be modified")
}

func TestPrepareMatchesSpellingVariants(t *testing.T) {
	in := canonicalTable([]string{"2021-01-04", "I\u0302le-de-France", "Tous \u00a0\u00e2ges", "10", "2", "1", "a"})

	out, stats := Prepare(in)
	require.Len(t, out.Rows, 1)
	assert.Zero(t, stats.DroppedRegion)
	assert.Zero(t, stats.DroppedAge)
	assert.Equal(t, "I\u0302le-de-France", column(t, out, 0, internal.ColRegion))
}

func TestPrepareRatioDivisionByZero(t *testing.T) {
	in := canonicalTable(
		[]string{"2021-01-04", "Île-de-France", "Tous âges", "0", "2", "", "a"},
		[]string{"2021-01-04", "Île-de-France", "Tous âges", "0", "0", "", "a"},
	)

	out, _ := Prepare(in)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "inf", column(t, out, 0, internal.ColRatioHosp))
	assert.Equal(t, "", column(t, out, 1, internal.ColRatioHosp))
}

func TestPrepareNullDate(t *testing.T) {
	in := canonicalTable([]string{"garbage", "Île-de-France", "Tous âges", "4", "1", "2", "a"})

	out, _ := Prepare(in)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "", column(t, out, 0, internal.ColDateSemaine))
	assert.Equal(t, "", column(t, out, 0, internal.ColAnnee))
	assert.Equal(t, "", column(t, out, 0, internal.ColMois))
	assert.Equal(t, "", column(t, out, 0, internal.ColSemaine))
	assert.Equal(t, "0.25", column(t, out, 0, internal.ColRatioHosp))
}

func TestPrepareSkipsStepsForMissingColumns(t *testing.T) {
	in := &internal.Table{
		Columns: []string{internal.ColTauxPassages, internal.ColRaison},
		Rows: [][]string{
			{"3", "a"},
			{"", "b"},
		},
	}

	out, stats := Prepare(in)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, []string{internal.ColTauxPassages, internal.ColRaison}, out.Columns)
	assert.Equal(t, []string{"3", "a"}, out.Rows[0])
	assert.Equal(t, []string{"filter_region", "filter_age", "fill_actes", "calendar_fields", "ratio_hosp"}, stats.Skipped)
}

func TestPrepareOverwritesExistingDerivedColumn(t *testing.T) {
	in := &internal.Table{
		Columns: []string{internal.ColDateSemaine, internal.ColAnnee},
		Rows:    [][]string{{"2020-12-28", "1999"}},
	}

	out, _ := Prepare(in)
	assert.Equal(t, []string{internal.ColDateSemaine, internal.ColAnnee, internal.ColMois, internal.ColSemaine}, out.Columns)
	assert.Equal(t, []string{"2020-12-28", "2020", "12", "53"}, out.Rows[0])
}

func TestPrepareServiceRun(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "merged.csv", canonicalHeader+"\n"+
		"2021-01-04,Île-de-France,Tous âges,10,2,,2021\n"+
		"2021-01-04,Bretagne,Tous âges,10,2,,2021\n")
	out := filepath.Join(dir, "outputs", "final.csv")

	res, table, err := NewPrepareService(in, out, nopLogger()).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 11, res.Columns)
	assert.Len(t, table.Rows, 1)

	want := canonicalHeader + ",annee,mois,semaine,ratio_hosp\n" +
		"2021-01-04,Île-de-France,Tous âges,10,2,0,2021,2021,1,1,0.2\n"
	assert.Equal(t, want, readFile(t, out))
}

func TestPrepareServiceRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "final.csv")

	_, _, err := NewPrepareService(filepath.Join(dir, "merged.csv"), out, nopLogger()).Run()
	require.ErrorIs(t, err, ErrMissingInput)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
