package presence

import (
	"slices"
	"strings"
)

// AnonymousUsername is used when neither a profile username nor a display
// name is available.
const AnonymousUsername = "Anonymous User"

// ComputeOnlineNames returns the usernames of online records, each name once,
// in first-seen order. Deduplication is by name, so different uids sharing a
// username collapse into a single entry.
func ComputeOnlineNames(records []Record) []string {
	names := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if !rec.Online {
			continue
		}
		if _, ok := seen[rec.Username]; ok {
			continue
		}
		seen[rec.Username] = struct{}{}
		names = append(names, rec.Username)
	}
	return names
}

// OnlineNames orders the collection by uid and computes its online names, so
// the same collection always yields the same list.
func OnlineNames(records map[string]Record) []string {
	uids := make([]string, 0, len(records))
	for uid := range records {
		uids = append(uids, uid)
	}
	slices.Sort(uids)

	ordered := make([]Record, 0, len(uids))
	for _, uid := range uids {
		ordered = append(ordered, records[uid])
	}
	return ComputeOnlineNames(ordered)
}

// ResolveUsername picks the name shown for a session: the profile username,
// else the provider display name, else AnonymousUsername.
func ResolveUsername(profileUsername, displayName string) string {
	if s := strings.TrimSpace(profileUsername); s != "" {
		return s
	}
	if s := strings.TrimSpace(displayName); s != "" {
		return s
	}
	return AnonymousUsername
}
