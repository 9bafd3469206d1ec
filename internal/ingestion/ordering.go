package ingestion

import (
	"errors"
	"sort"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/normalization"
)

// ErrInvalidOrdering is returned when records are not properly ordered.
var ErrInvalidOrdering = errors.New("records are not in deterministic order")

// SortClients orders clients by id ASC.
func SortClients(clients []*domain.ClientRecord) {
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ID < clients[j].ID
	})
}

// SortPrices orders prices by (client_id ASC, price_date ASC).
func SortPrices(prices []*domain.PriceRecord) {
	normalization.SortPriceRecords(prices)
}

// ValidateClientOrdering checks that ids are strictly ascending.
// Returns ErrInvalidOrdering if not.
func ValidateClientOrdering(clients []*domain.ClientRecord) error {
	for i := 1; i < len(clients); i++ {
		if clients[i-1].ID >= clients[i].ID {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// ValidatePriceOrdering checks that prices are ordered by (client_id, price_date).
// Equal keys are allowed.
func ValidatePriceOrdering(prices []*domain.PriceRecord) error {
	for i := 1; i < len(prices); i++ {
		a, b := prices[i-1], prices[i]
		if a.ClientID > b.ClientID || (a.ClientID == b.ClientID && a.PriceDate.After(b.PriceDate)) {
			return ErrInvalidOrdering
		}
	}
	return nil
}
