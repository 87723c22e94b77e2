package pipeline

import "strings"

// Source column names as published in the regional extracts.
const (
	SourceFirstDay  = "1er jour de la semaine"
	SourceWeek      = "Semaine"
	SourceYear      = "Année"
	SourceRegion    = "Région"
	SourceClasseAge = "Classe d'âge"

	// Rate column names embed the condition after these prefixes.
	PrefixPassages = "Taux de passages aux urgences pour "
	PrefixHospit   = "Taux d'hospitalisations après passages aux urgences pour "
	PrefixActesSOS = "Taux d'actes médicaux SOS médecins pour "
)

// PickFirstColumn returns the first column, in table order, whose name starts
// with prefix.
func PickFirstColumn(columns []string, prefix string) (string, bool) {
	for _, c := range columns {
		if strings.HasPrefix(c, prefix) {
			return c, true
		}
	}
	return "", false
}
