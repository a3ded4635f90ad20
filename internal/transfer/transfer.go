// Package transfer normalizes raw token-transfer records from heterogeneous
// chain sources into one canonical shape and merges overlapping query
// results into a single duplicate-free timeline.
package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/eqty-dao/treasury/internal/money"
)

// Direction of a transfer relative to the treasury address.
const (
	DirectionIn    = "in"
	DirectionOut   = "out"
	DirectionSelf  = "self"
	DirectionOther = "other"
)

// Raw is the source-independent intermediate shape. Each chain client maps
// its native wire rows into Raw before normalization.
type Raw struct {
	Hash string
	From string
	To   string

	// Value is the amount in the asset's smallest unit, decimal or 0x-hex.
	Value string

	// Timestamp is the source-supplied event time in ISO-8601, when the
	// source carries one. UnixSeconds is the alternative second-resolution
	// form. When both are zero the normalizer falls back to processing time.
	Timestamp   string
	UnixSeconds int64

	// Asset and UniqueID feed the dedup identity; they are not published.
	Asset    string
	UniqueID string
}

// Normalized is one canonical transfer record as published in the chain
// snapshot artifacts. Immutable once produced.
type Normalized struct {
	Hash            string `json:"hash"`
	Timestamp       string `json:"timestamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Direction       string `json:"direction"`
	AmountRaw       string `json:"amountRaw"`
	AmountFormatted string `json:"amountFormatted"`
	ExplorerTxURL   string `json:"explorerTxUrl"`

	asset    string
	uniqueID string
}

// Normalize converts one raw record into its canonical form. Direction is
// computed relative to referenceAddress; the amount is decoded from decimal
// or hex smallest units and formatted with the asset's decimal precision.
func Normalize(r Raw, referenceAddress string, decimals int32, explorerBase string) Normalized {
	raw := money.ParseRawUnits(r.Value)

	return Normalized{
		Hash:            r.Hash,
		Timestamp:       eventTime(r),
		From:            r.From,
		To:              r.To,
		Direction:       classify(r.From, r.To, referenceAddress),
		AmountRaw:       raw.String(),
		AmountFormatted: money.FormatUnits(raw, decimals),
		ExplorerTxURL:   fmt.Sprintf("%s/tx/%s", explorerBase, r.Hash),

		asset:    r.Asset,
		uniqueID: r.UniqueID,
	}
}

// NormalizeAll maps Normalize over a list of raw records.
func NormalizeAll(rows []Raw, referenceAddress string, decimals int32, explorerBase string) []Normalized {
	out := make([]Normalized, 0, len(rows))
	for _, r := range rows {
		out = append(out, Normalize(r, referenceAddress, decimals, explorerBase))
	}
	return out
}

// classify derives the transfer direction. Address comparison is
// case-insensitive. Records scoped to the reference address should never be
// "other", but an unscoped record must not break the pipeline.
func classify(from, to, reference string) string {
	fromMe := strings.EqualFold(from, reference)
	toMe := strings.EqualFold(to, reference)

	switch {
	case fromMe && toMe:
		return DirectionSelf
	case toMe:
		return DirectionIn
	case fromMe:
		return DirectionOut
	default:
		return DirectionOther
	}
}

// eventTime prefers the source-supplied event time. Processing time is the
// last resort only, so downstream lexicographic sorting always has a valid
// ISO-8601 value to work with.
func eventTime(r Raw) string {
	if r.Timestamp != "" {
		return r.Timestamp
	}
	if r.UnixSeconds > 0 {
		return time.Unix(r.UnixSeconds, 0).UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}
