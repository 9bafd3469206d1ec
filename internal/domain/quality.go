package domain

// WarningKind classifies a non-fatal data quality finding.
type WarningKind string

// Data quality warning kinds.
const (
	WarningNegativeContractDuration WarningKind = "NEGATIVE_CONTRACT_DURATION"
	WarningUnknownFlagValue         WarningKind = "UNKNOWN_FLAG_VALUE"
	WarningNoPriceHistory           WarningKind = "NO_PRICE_HISTORY"
)

// WarningKinds lists every kind in report order.
var WarningKinds = []WarningKind{
	WarningNegativeContractDuration,
	WarningUnknownFlagValue,
	WarningNoPriceHistory,
}

// DataQualityWarning records a value that flows through the pipeline
// unchanged but should be flagged to downstream consumers.
type DataQualityWarning struct {
	Kind     WarningKind
	ClientID string
	Column   string // source column, empty when not column-specific
	Value    string // offending value as text
	Message  string
}
