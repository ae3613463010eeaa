package utils

import "github.com/google/uuid"

// IsUUID validates path/body ids before they reach the database, so malformed
// input reads as a 400 rather than a driver error.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// DedupeIDs drops duplicates while keeping first-seen order.
func DedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
