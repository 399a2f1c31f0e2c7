package lifecycle

// Canonical issue statuses. The staff-facing vocabulary also uses
// "working" and "closed"; NormalizeStatus folds those in at the
// boundary so the rest of the code only ever sees the four canonical
// values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// NormalizeStatus maps a requested status string to its canonical
// form. ok is false for anything outside the known vocabulary.
func NormalizeStatus(s string) (string, bool) {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return s, true
	case "working":
		return StatusInProgress, true
	case "closed":
		return StatusResolved, true
	}
	return "", false
}

// IsTerminal reports whether no further status transitions are legal.
func IsTerminal(status string) bool {
	return status == StatusResolved || status == StatusRejected
}

// edgeAllowed is the status graph itself, independent of who asks.
// pending reaches in-progress only through assignment, but the edge
// is still part of the graph for validation purposes.
func edgeAllowed(current, target string) bool {
	switch current {
	case StatusPending:
		return target == StatusInProgress || target == StatusRejected
	case StatusInProgress:
		// in-progress -> in-progress is the staff "working" touch.
		return target == StatusInProgress || target == StatusResolved || target == StatusRejected
	}
	return false
}
