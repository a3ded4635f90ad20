package transfer

import (
	"log/slog"
	"sort"
)

// identityKind ranks how a record identifies itself for deduplication.
type identityKind int

const (
	// identityUnique combines the transaction hash with a source-provided
	// per-event uniqueness token. Preferred whenever the token exists.
	identityUnique identityKind = iota

	// identityComposite falls back to (hash, asset, from, to, value) so two
	// legitimate transfers batched into one transaction stay distinct.
	identityComposite
)

// identity is the dedup key of one normalized record.
type identity struct {
	kind identityKind
	key  string
}

// dedupIdentity derives a record's identity. The second return is false when
// the record carries nothing usable; such records are dropped rather than
// risking a false merge.
func dedupIdentity(t Normalized) (identity, bool) {
	if t.Hash == "" {
		return identity{}, false
	}
	if t.uniqueID != "" {
		return identity{kind: identityUnique, key: t.Hash + ":" + t.uniqueID}, true
	}
	return identity{
		kind: identityComposite,
		key:  t.Hash + ":" + t.asset + ":" + t.From + ":" + t.To + ":" + t.AmountRaw,
	}, true
}

// MergeAndDedup combines normalized records from multiple queries (for
// example separate outgoing and incoming fetches against the same source)
// into one duplicate-free sequence, newest first, at most maxCount long.
//
// Truncation happens strictly after sorting; truncating earlier could drop
// the most recent events when the input lists are not already ordered.
// The result is the same for any ordering of the same input records.
func MergeAndDedup(lists [][]Normalized, maxCount int) []Normalized {
	seen := make(map[identity]struct{})
	merged := make([]Normalized, 0)
	dropped := 0

	for _, list := range lists {
		for _, t := range list {
			id, ok := dedupIdentity(t)
			if !ok {
				dropped++
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, t)
		}
	}

	if dropped > 0 {
		slog.Warn("transfers dropped for missing identity", "count", dropped)
	}

	// ISO-8601 with a fixed offset convention sorts lexicographically equal
	// to chronologically. Ties break on the dedup key so re-runs over
	// re-ordered inputs produce identical sequences.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp > merged[j].Timestamp
		}
		a, _ := dedupIdentity(merged[i])
		b, _ := dedupIdentity(merged[j])
		return a.key < b.key
	})

	if maxCount >= 0 && len(merged) > maxCount {
		merged = merged[:maxCount]
	}
	return merged
}
