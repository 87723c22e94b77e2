package pipeline

import (
	"strconv"
	"strings"

	"sursaud/internal"
	"sursaud/internal/util"
)

// AnalyticalRows converts the prepared table into typed rows. Columns the
// table lacks stay nil.
func AnalyticalRows(t *internal.Table) []internal.AnalyticalRow {
	get := func(row []string, name string) string {
		return cell(row, t.Index(name))
	}
	text := func(row []string, name string) *string {
		return textCell(row, t.Index(name))
	}
	integer := func(row []string, name string) *int {
		v, err := strconv.Atoi(strings.TrimSpace(get(row, name)))
		if err != nil {
			return nil
		}
		return &v
	}

	out := make([]internal.AnalyticalRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, internal.AnalyticalRow{
			DateSemaine:          ParseDate(get(row, internal.ColDateSemaine)),
			Region:               text(row, internal.ColRegion),
			ClasseAge:            text(row, internal.ColClasseAge),
			TauxPassagesUrgences: util.ParseNumberPtr(get(row, internal.ColTauxPassages)),
			TauxHospitalisation:  util.ParseNumberPtr(get(row, internal.ColTauxHospit)),
			TauxActesSOSMedecins: util.ParseNumberPtr(get(row, internal.ColTauxActesSOS)),
			Raison:               text(row, internal.ColRaison),
			Annee:                integer(row, internal.ColAnnee),
			Mois:                 integer(row, internal.ColMois),
			Semaine:              integer(row, internal.ColSemaine),
			RatioHosp:            util.ParseNumberPtr(get(row, internal.ColRatioHosp)),
		})
	}
	return out
}
