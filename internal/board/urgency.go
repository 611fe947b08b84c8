package board

// Urgency tiers shown on cards. Tiering is display-only and never feeds
// back into partitioning.
const (
	UrgencyClosed = "closed"
	UrgencyUrgent = "urgent"
	UrgencySoon   = "soon"
	UrgencyOpen   = "open"
)

// UrgencyTier maps a days-left value to a display tier. hasDeadline=false
// (no parsable deadline) always reads as open.
func UrgencyTier(daysLeft int, hasDeadline bool) string {
	switch {
	case !hasDeadline:
		return UrgencyOpen
	case daysLeft < 0:
		return UrgencyClosed
	case daysLeft <= 7:
		return UrgencyUrgent
	case daysLeft <= 15:
		return UrgencySoon
	default:
		return UrgencyOpen
	}
}
