package payments

import (
	"fmt"
	"sort"
)

// Tier maps a minimum paid amount (in minor currency units) to a credit
// grant. Thresholds use or-better semantics: the richest tier whose minimum
// does not exceed the paid amount wins. Exact-match mapping would break on
// processor-side rounding, so amounts are never compared for equality.
type Tier struct {
	MinAmount int64
	Credits   int64
}

// TierTable is an ordered tier list, highest threshold first.
type TierTable struct {
	tiers []Tier
}

// NewTierTable validates and orders a tier list. Every tier needs a positive
// threshold and a positive grant.
func NewTierTable(tiers []Tier) (TierTable, error) {
	if len(tiers) == 0 {
		return TierTable{}, fmt.Errorf("tier table must not be empty")
	}
	ordered := make([]Tier, len(tiers))
	copy(ordered, tiers)
	for _, t := range ordered {
		if t.MinAmount <= 0 {
			return TierTable{}, fmt.Errorf("tier threshold must be positive, got %d", t.MinAmount)
		}
		if t.Credits <= 0 {
			return TierTable{}, fmt.Errorf("tier grant must be positive, got %d", t.Credits)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MinAmount > ordered[j].MinAmount })
	return TierTable{tiers: ordered}, nil
}

// DefaultTierTable returns the fixed production pricing table
// (9.99 -> 10, 49.99 -> 50, 99.99 -> 100, 499.99 -> 500).
func DefaultTierTable() TierTable {
	t, err := NewTierTable([]Tier{
		{MinAmount: 999, Credits: 10},
		{MinAmount: 4999, Credits: 50},
		{MinAmount: 9999, Credits: 100},
		{MinAmount: 49999, Credits: 500},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve maps a paid amount in minor units to a credit grant.
func (t TierTable) Resolve(amountMinor int64) (int64, error) {
	for _, tier := range t.tiers {
		if amountMinor >= tier.MinAmount {
			return tier.Credits, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownAmount, amountMinor)
}
