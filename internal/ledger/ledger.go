// Package ledger resolves the hierarchical ledger-account classification and
// aggregates per-category amounts into their top-level groups.
package ledger

// Account is one node of the ledger-account classification. An account with
// no parent, or whose parent is missing from the snapshot, is a root.
type Account struct {
	ID          string
	Name        string
	ParentID    string
	AccountType string
}

// Index is a read-only lookup over one snapshot of ledger accounts.
// Build it once per aggregation run; it is never mutated afterwards.
type Index map[string]Account

// NewIndex builds an Index from a flat account snapshot.
// Later duplicates of the same id win, matching upstream ordering.
func NewIndex(accounts []Account) Index {
	idx := make(Index, len(accounts))
	for _, a := range accounts {
		idx[a.ID] = a
	}
	return idx
}

// Name returns the display name for an account id, or "" when the id is
// unknown or unnamed.
func (idx Index) Name(id string) string {
	return idx[id].Name
}

// TopGroup walks parent links upward from id and returns the top-level group
// the account belongs to.
//
// The walk terminates on a root, on an id absent from the index (the id
// itself is then the group), or on a cycle (the revisited id is returned).
// A malformed hierarchy therefore degrades to odd grouping, never to a hang
// or a crash. For a fixed index the result is stable across calls.
func (idx Index) TopGroup(id string) string {
	cur := id
	seen := make(map[string]struct{})

	for {
		a, ok := idx[cur]
		if !ok || a.ParentID == "" {
			return cur
		}
		if _, visited := seen[cur]; visited {
			return cur
		}
		seen[cur] = struct{}{}
		cur = a.ParentID
	}
}
