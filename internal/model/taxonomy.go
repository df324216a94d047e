package model

// Taxonomy is the externally configured status vocabulary: the full funnel
// order plus the conversion / lost / in-progress groupings. It is threaded
// into consumers as a value, never held as package state, because label sets
// vary by deployment.
type Taxonomy struct {
	Statuses   []string `json:"statuses" yaml:"statuses"`
	Conversion []string `json:"conversion" yaml:"conversion"`
	Lost       []string `json:"lost" yaml:"lost"`
	InProgress []string `json:"in_progress" yaml:"in_progress"`
}

// IsConversion reports whether status is an exact member of the conversion
// group. Membership is exact, not substring: "NÃO RESPONDE" inside a longer
// label must not match.
func (t Taxonomy) IsConversion(status string) bool {
	return contains(t.Conversion, status)
}

// IsLost reports whether status is an exact member of the lost group.
func (t Taxonomy) IsLost(status string) bool {
	return contains(t.Lost, status)
}

// IsInProgress reports whether status is an exact member of the in-progress
// group.
func (t Taxonomy) IsInProgress(status string) bool {
	return contains(t.InProgress, status)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
