package pipeline

import "strings"

// reasonSuffixes are tried in order, most specific first.
var reasonSuffixes = []string{
	"-passages-aux-urgences-et-actes-sos-medecins-region.csv",
	"-passages-aux-urgences-region.csv",
	"-passages-urgences-et-actes-sos-medecin_reg.csv",
}

// ReasonFromName derives the raison label from a source file base name.
// Unknown names only lose their .csv extension; non-CSV names are returned
// as-is.
func ReasonFromName(name string) string {
	for _, suffix := range reasonSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return name[:len(name)-len(".csv")]
	}
	return name
}
