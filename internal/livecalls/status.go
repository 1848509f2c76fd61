package livecalls

// The provider reports call status as a free-form string whose vocabulary has
// drifted across API versions. Both tables live here so every consumer of the
// filtering rule (snapshot builder, REST history view) reads the same lists.

// activeStatuses is the whitelist: a conversation counts as live only if its
// status appears here.
var activeStatuses = map[string]struct{}{
	"in_progress": {},
	"active":      {},
	"ongoing":     {},
	"in-progress": {},
	"initiated":   {},
}

// endedStatuses is the blacklist, applied even to whitelisted values:
// "initiated" is transitional and can coexist with ended markers on the
// provider side.
var endedStatuses = map[string]struct{}{
	"done":         {},
	"completed":    {},
	"failed":       {},
	"cancelled":    {},
	"terminated":   {},
	"ended":        {},
	"disconnected": {},
	"hung_up":      {},
	"finished":     {},
	"closed":       {},
}

// IsLive reports whether a status string counts as a live call: present in
// the active whitelist and absent from the ended blacklist.
func IsLive(status string) bool {
	if _, ok := activeStatuses[status]; !ok {
		return false
	}
	_, ended := endedStatuses[status]
	return !ended
}

// IsEnded reports whether a status string is in the ended vocabulary.
func IsEnded(status string) bool {
	_, ok := endedStatuses[status]
	return ok
}
