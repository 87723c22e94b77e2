package internal

import (
	"fmt"
	"time"
)

const (
	ColDateSemaine  = "date_semaine"
	ColRegion       = "region"
	ColClasseAge    = "classe_age"
	ColTauxPassages = "taux_passages_urgences"
	ColTauxHospit   = "taux_hospitalisation"
	ColTauxActesSOS = "taux_actes_sos_medecins"
	ColRaison       = "raison"

	ColAnnee     = "annee"
	ColMois      = "mois"
	ColSemaine   = "semaine"
	ColRatioHosp = "ratio_hosp"
)

const (
	TargetRegion   = "Île-de-France"
	TargetAgeClass = "Tous âges"

	DateLayout = "2006-01-02"
)

const (
	StageMerge      = "merge"
	StagePrepare    = "prepare"
	StageExportXLSX = "export_xlsx"
)

// CanonicalColumns is the fixed Stage A output schema, in output order.
var CanonicalColumns = [7]string{
	ColDateSemaine,
	ColRegion,
	ColClasseAge,
	ColTauxPassages,
	ColTauxHospit,
	ColTauxActesSOS,
	ColRaison,
}

// Table is a header plus string records. An empty cell is a null value.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

type CanonicalRow struct {
	DateSemaine          *time.Time
	Region               *string
	ClasseAge            *string
	TauxPassagesUrgences *float64
	TauxHospitalisation  *float64
	TauxActesSOSMedecins *float64
	Raison               string
}

type SourceFile struct {
	Name   string
	Reason string
	SHA256 string
	Rows   int
}

type AnalyticalRow struct {
	DateSemaine          *time.Time
	Region               *string
	ClasseAge            *string
	TauxPassagesUrgences *float64
	TauxHospitalisation  *float64
	TauxActesSOSMedecins *float64
	Raison               *string
	Annee                *int
	Mois                 *int
	Semaine              *int
	RatioHosp            *float64
}

type StageResult struct {
	Stage      string
	InputPath  string
	OutputPath string
	Rows       int
	Columns    int
	Duration   time.Duration
	Sources    []SourceFile
}

// Summary is the one-line report printed after a successful stage.
func (r StageResult) Summary() string {
	return fmt.Sprintf("Wrote %s with %d rows and %d columns", r.OutputPath, r.Rows, r.Columns)
}

type RunRow struct {
	ID         int
	TraceID    string
	Stage      string
	InputPath  string
	OutputPath string
	Rows       int
	Columns    int
	DurationMs int64
	CreatedAt  string
}
