package transfer

import (
	"reflect"
	"testing"
)

func normalized(hash, ts, from, to, value, uniqueID string) Normalized {
	return Normalize(Raw{
		Hash:      hash,
		Timestamp: ts,
		From:      from,
		To:        to,
		Value:     value,
		Asset:     "EQTY",
		UniqueID:  uniqueID,
	}, treasury, 6, "https://basescan.org")
}

func TestMergeAndDedup_SharedRecordAppearsOnce(t *testing.T) {
	shared := normalized("0xabc", "2025-02-01T10:00:00Z", "0x1", treasury, "100", "")
	extra := normalized("0xdef", "2025-02-02T10:00:00Z", treasury, "0x2", "50", "")

	a := []Normalized{shared}
	b := []Normalized{shared, extra}

	got := MergeAndDedup([][]Normalized{a, b}, 25)

	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// 0xdef has the later timestamp, so it sorts first.
	if got[0].Hash != "0xdef" || got[1].Hash != "0xabc" {
		t.Errorf("order = [%s %s], want [0xdef 0xabc]", got[0].Hash, got[1].Hash)
	}
}

func TestMergeAndDedup_OrderIndependent(t *testing.T) {
	a := []Normalized{
		normalized("0x1", "2025-01-03T00:00:00Z", "0xa", treasury, "1", ""),
		normalized("0x2", "2025-01-01T00:00:00Z", "0xa", treasury, "2", ""),
	}
	b := []Normalized{
		normalized("0x2", "2025-01-01T00:00:00Z", "0xa", treasury, "2", ""),
		normalized("0x3", "2025-01-02T00:00:00Z", treasury, "0xb", "3", ""),
	}

	ab := MergeAndDedup([][]Normalized{a, b}, 25)
	ba := MergeAndDedup([][]Normalized{b, a}, 25)

	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("MergeAndDedup([A,B]) != MergeAndDedup([B,A]):\n%v\n%v", ab, ba)
	}
}

func TestMergeAndDedup_SortedDescAndBounded(t *testing.T) {
	list := []Normalized{
		normalized("0x1", "2025-01-01T00:00:00Z", "0xa", treasury, "1", ""),
		normalized("0x2", "2025-01-04T00:00:00Z", "0xa", treasury, "2", ""),
		normalized("0x3", "2025-01-02T00:00:00Z", "0xa", treasury, "3", ""),
		normalized("0x4", "2025-01-03T00:00:00Z", "0xa", treasury, "4", ""),
	}

	got := MergeAndDedup([][]Normalized{list}, 3)

	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp < got[i].Timestamp {
			t.Errorf("not sorted descending at %d: %s < %s", i, got[i-1].Timestamp, got[i].Timestamp)
		}
	}
	// The oldest record is the one cut off, not the newest.
	if got[0].Hash != "0x2" {
		t.Errorf("newest record = %s, want 0x2", got[0].Hash)
	}
}

func TestMergeAndDedup_UniqueTokenPrecedence(t *testing.T) {
	// Same hash and value but distinct uniqueness tokens: both survive.
	a := normalized("0xabc", "2025-01-01T00:00:00Z", "0xa", treasury, "100", "log:1")
	b := normalized("0xabc", "2025-01-01T00:00:00Z", "0xa", treasury, "100", "log:2")

	got := MergeAndDedup([][]Normalized{{a}, {b}}, 25)
	if len(got) != 2 {
		t.Errorf("got %d records, want 2 distinct unique tokens", len(got))
	}
}

func TestMergeAndDedup_BatchedTransfersStayDistinct(t *testing.T) {
	// Same tx hash, no unique token, different values: composite key keeps both.
	a := normalized("0xabc", "2025-01-01T00:00:00Z", "0xa", treasury, "100", "")
	b := normalized("0xabc", "2025-01-01T00:00:00Z", "0xa", treasury, "250", "")

	got := MergeAndDedup([][]Normalized{{a, b}}, 25)
	if len(got) != 2 {
		t.Errorf("got %d records, want 2 batched transfers", len(got))
	}
}

func TestMergeAndDedup_UnusableIdentityDropped(t *testing.T) {
	noHash := normalized("", "2025-01-01T00:00:00Z", "0xa", treasury, "1", "")
	ok := normalized("0x1", "2025-01-02T00:00:00Z", "0xa", treasury, "1", "")

	got := MergeAndDedup([][]Normalized{{noHash, ok}}, 25)
	if len(got) != 1 || got[0].Hash != "0x1" {
		t.Errorf("got %v, want only 0x1", got)
	}
}

func TestMergeAndDedup_Idempotent(t *testing.T) {
	list := []Normalized{
		normalized("0x1", "2025-01-03T00:00:00Z", "0xa", treasury, "1", ""),
		normalized("0x2", "2025-01-01T00:00:00Z", "0xa", treasury, "2", ""),
	}

	once := MergeAndDedup([][]Normalized{list}, 25)
	twice := MergeAndDedup([][]Normalized{once}, 25)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-running changed the output:\n%v\n%v", once, twice)
	}
}
