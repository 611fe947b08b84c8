package board

import "strings"

// Facets are the pill filters the UI applies to a partition. An empty
// facet matches everything; values within a facet are OR'd, facets are
// AND'd together.
type Facets struct {
	Urgency  []string
	Qual     []string
	Domicile []string
	Source   []string
}

// Empty reports whether no facet is active.
func (f Facets) Empty() bool {
	return len(f.Urgency) == 0 && len(f.Qual) == 0 && len(f.Domicile) == 0 && len(f.Source) == 0
}

// Filter returns the cards matching all active facets, preserving order.
func Filter(cards []Card, f Facets) []Card {
	if f.Empty() {
		return cards
	}
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if !matchFacet(f.Urgency, c.Urgency, true) {
			continue
		}
		if !matchFacet(f.Qual, c.QualificationLevel, false) {
			continue
		}
		if !matchFacet(f.Domicile, c.Domicile, false) {
			continue
		}
		if !matchFacet(f.Source, c.Source, true) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchFacet(wanted []string, val string, fold bool) bool {
	if len(wanted) == 0 {
		return true
	}
	if fold {
		val = strings.ToLower(val)
	}
	for _, w := range wanted {
		if fold {
			w = strings.ToLower(w)
		}
		if w == val {
			return true
		}
	}
	return false
}
