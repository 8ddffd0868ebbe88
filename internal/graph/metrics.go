package graph

func (g *Graph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonNoCandidate
		}
		counts[reason]++
	}
	return counts
}

// OrphanCount is the number of members whose owner type was not scanned.
func (g *Graph) OrphanCount() int {
	if g == nil {
		return 0
	}
	return g.orphans
}
