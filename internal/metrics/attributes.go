package metrics

import (
	"fmt"
	"sort"
	"strconv"

	"churn-feature-lab/internal/domain"
)

// extractor reads the category value of one attribute.
type extractor func(r *domain.EnhancedClientRecord) string

var extractors = map[string]extractor{
	"channel_sales":   func(r *domain.EnhancedClientRecord) string { return r.ChannelSales },
	"origin_up":       func(r *domain.EnhancedClientRecord) string { return r.OriginUp },
	"has_gas":         func(r *domain.EnhancedClientRecord) string { return r.HasGas },
	"nb_prod_act":     func(r *domain.EnhancedClientRecord) string { return strconv.Itoa(r.NbProdAct) },
	"num_years_antig": func(r *domain.EnhancedClientRecord) string { return strconv.Itoa(r.NumYearsAntig) },
}

// DefaultAttributes is the attribute list tabulated when none is configured.
var DefaultAttributes = []string{"channel_sales", "has_gas", "origin_up"}

// Attributes returns every supported attribute name, sorted.
func Attributes() []string {
	names := make([]string, 0, len(extractors))
	for name := range extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAttribute reports whether name has an extractor.
func IsAttribute(name string) bool {
	_, ok := extractors[name]
	return ok
}

// Observations extracts (category, churn) pairs for attribute from records.
func Observations(attribute string, records []*domain.EnhancedClientRecord) ([]Observation, error) {
	extract, ok := extractors[attribute]
	if !ok {
		return nil, fmt.Errorf("%q: %w", attribute, ErrUnknownAttribute)
	}

	obs := make([]Observation, len(records))
	for i, r := range records {
		obs[i] = Observation{Category: extract(r), Outcome: r.Churn}
	}
	return obs, nil
}
