package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

// Default sufficiency thresholds.
const (
	DefaultMinClients       = 1
	DefaultMinPriceCoverage = 0.5
	maxOrphanErrors         = 20
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates that the inputs cover enough clients and
// price history for the churn tables to be meaningful. A failed check is
// reported, never fatal.
type SufficiencyChecker struct {
	clientStore      storage.ClientStore
	priceStore       storage.PriceStore
	minClients       int
	minPriceCoverage float64
}

// NewSufficiencyChecker creates a new sufficiency checker with default thresholds.
func NewSufficiencyChecker(clientStore storage.ClientStore, priceStore storage.PriceStore) *SufficiencyChecker {
	return &SufficiencyChecker{
		clientStore:      clientStore,
		priceStore:       priceStore,
		minClients:       DefaultMinClients,
		minPriceCoverage: DefaultMinPriceCoverage,
	}
}

// WithThresholds overrides the minimum client count and price coverage share.
func (c *SufficiencyChecker) WithThresholds(minClients int, minPriceCoverage float64) *SufficiencyChecker {
	c.minClients = minClients
	c.minPriceCoverage = minPriceCoverage
	return c
}

// Check performs all sufficiency checks against the source stores and the
// enhanced table of the run.
func (c *SufficiencyChecker) Check(ctx context.Context, enhancedStore storage.EnhancedClientStore) (*SufficiencyResult, error) {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
		Errors:  []string{},
	}

	clients, err := c.clientStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get clients: %w", err)
	}
	prices, err := c.priceStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	enhanced, err := enhancedStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get enhanced clients: %w", err)
	}

	add := func(check SufficiencyCheck, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	// Check 1: Client count
	add(c.checkClientCount(clients), nil)

	// Check 2: Price history coverage
	add(c.checkPriceCoverage(enhanced), nil)

	// Check 3: Both churn outcomes observed
	add(checkOutcomes(clients), nil)

	// Check 4: Price records reference known clients
	add(checkOrphanPrices(clients, prices))

	// Check 5: One enhanced row per client
	add(checkEnhancedRows(clients, enhanced))

	return result, nil
}

func (c *SufficiencyChecker) checkClientCount(clients []*domain.ClientRecord) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "Clients loaded",
		Threshold: fmt.Sprintf(">= %d", c.minClients),
		Actual:    strconv.Itoa(len(clients)),
		Pass:      len(clients) >= c.minClients,
	}
}

func (c *SufficiencyChecker) checkPriceCoverage(enhanced []*domain.EnhancedClientRecord) SufficiencyCheck {
	covered := 0
	for _, e := range enhanced {
		if e.HasPriceHistory() {
			covered++
		}
	}

	share := 0.0
	if len(enhanced) > 0 {
		share = float64(covered) / float64(len(enhanced))
	}
	return SufficiencyCheck{
		Name:      "Price history coverage",
		Threshold: fmt.Sprintf(">= %.1f%%", c.minPriceCoverage*100),
		Actual:    fmt.Sprintf("%.1f%% (%d/%d)", share*100, covered, len(enhanced)),
		Pass:      len(enhanced) > 0 && share >= c.minPriceCoverage,
	}
}

func checkOutcomes(clients []*domain.ClientRecord) SufficiencyCheck {
	seen := make(map[int]bool)
	for _, cl := range clients {
		seen[cl.Churn] = true
	}

	outcomes := make([]string, 0, len(seen))
	for o := range seen {
		outcomes = append(outcomes, strconv.Itoa(o))
	}
	sort.Strings(outcomes)

	actual := strings.Join(outcomes, ", ")
	if actual == "" {
		actual = "none"
	}
	return SufficiencyCheck{
		Name:      "Churn outcomes observed",
		Threshold: "0 and 1",
		Actual:    actual,
		Pass:      seen[domain.OutcomeRetained] && seen[domain.OutcomeChurned],
	}
}

// checkOrphanPrices counts price records whose client is absent from the
// client table. Such records produce deltas that never reach the enhanced table.
func checkOrphanPrices(clients []*domain.ClientRecord, prices []*domain.PriceRecord) (SufficiencyCheck, []string) {
	known := make(map[string]struct{}, len(clients))
	for _, cl := range clients {
		known[cl.ID] = struct{}{}
	}

	orphans := make(map[string]int)
	total := 0
	for _, p := range prices {
		if _, ok := known[p.ClientID]; !ok {
			orphans[p.ClientID]++
			total++
		}
	}

	ids := make([]string, 0, len(orphans))
	for id := range orphans {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []string
	for i, id := range ids {
		if i == maxOrphanErrors {
			errs = append(errs, fmt.Sprintf("... and %d more unknown clients", len(ids)-maxOrphanErrors))
			break
		}
		errs = append(errs, fmt.Sprintf("price records for unknown client %s (%d rows)", id, orphans[id]))
	}

	return SufficiencyCheck{
		Name:      "Orphan price records",
		Threshold: "== 0",
		Actual:    strconv.Itoa(total),
		Pass:      total == 0,
	}, errs
}

func checkEnhancedRows(clients []*domain.ClientRecord, enhanced []*domain.EnhancedClientRecord) (SufficiencyCheck, []string) {
	check := SufficiencyCheck{
		Name:      "Enhanced rows per client",
		Threshold: "== 1",
		Actual:    fmt.Sprintf("%d rows / %d clients", len(enhanced), len(clients)),
		Pass:      len(enhanced) == len(clients),
	}
	if !check.Pass {
		return check, []string{fmt.Sprintf("enhanced table has %d rows for %d clients", len(enhanced), len(clients))}
	}
	return check, nil
}
