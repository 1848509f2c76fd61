package livecalls

// HasChanged reports whether next differs from prev in a way that warrants a
// broadcast: a different record count, a different id set, or a different
// status for any shared id. Duration and start time are deliberately not
// compared — duration advances every second and would otherwise turn every
// poll into a broadcast.
func HasChanged(prev, next Snapshot) bool {
	if len(next) != len(prev) {
		return true
	}

	prevStatus := make(map[string]string, len(prev))
	for _, rec := range prev {
		prevStatus[rec.ID] = rec.Status
	}

	for _, rec := range next {
		status, ok := prevStatus[rec.ID]
		if !ok {
			return true // new id (and, by equal counts, some old id is gone)
		}
		if status != rec.Status {
			return true
		}
	}
	return false
}
