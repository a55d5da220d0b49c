package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultPlanPrices is used when PLAN_PRICES is unset.
const DefaultPlanPrices = "basic:monthly=19,premium:monthly=29"

// DefaultCycle is the billing cycle assumed when a checkout names none.
const DefaultCycle = "monthly"

type PriceKey struct {
	Plan  string
	Cycle string
}

// PriceTable maps (plan, billing cycle) to a decimal amount such as "19.00".
type PriceTable map[PriceKey]string

// ParsePriceTable parses "plan:cycle=amount" entries separated by commas.
// The cycle may be omitted ("basic=19"), meaning monthly.
func ParsePriceTable(raw string) (PriceTable, error) {
	table := PriceTable{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, amount, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q must look like plan:cycle=amount", entry)
		}
		plan, cycle, hasCycle := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ":")
		if !hasCycle || cycle == "" {
			cycle = DefaultCycle
		}
		if plan == "" {
			return nil, fmt.Errorf("entry %q has no plan", entry)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil || value <= 0 {
			return nil, fmt.Errorf("entry %q has invalid amount", entry)
		}
		table[PriceKey{Plan: plan, Cycle: cycle}] = strconv.FormatFloat(value, 'f', 2, 64)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("no prices configured")
	}
	return table, nil
}

// Lookup returns the configured amount for plan and cycle.
func (t PriceTable) Lookup(plan, cycle string) (string, bool) {
	if cycle == "" {
		cycle = DefaultCycle
	}
	amount, ok := t[PriceKey{Plan: strings.ToLower(plan), Cycle: strings.ToLower(cycle)}]
	return amount, ok
}

type PriceEntry struct {
	Plan   string `json:"plan"`
	Cycle  string `json:"cycle"`
	Amount string `json:"amount"`
}

// Entries lists the table in a stable order.
func (t PriceTable) Entries() []PriceEntry {
	entries := make([]PriceEntry, 0, len(t))
	for key, amount := range t {
		entries = append(entries, PriceEntry{Plan: key.Plan, Cycle: key.Cycle, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Plan != entries[j].Plan {
			return entries[i].Plan < entries[j].Plan
		}
		return entries[i].Cycle < entries[j].Cycle
	})
	return entries
}
