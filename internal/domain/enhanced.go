package domain

// BinaryFlag is the encoded form of a "t"/"f" categorical flag.
type BinaryFlag int

// Binary flag values. FlagUnknown marks any source value other than "t" or "f".
const (
	FlagUnknown BinaryFlag = -1
	FlagFalse   BinaryFlag = 0
	FlagTrue    BinaryFlag = 1
)

// CalendarParts is the year/month/day decomposition of one calendar value.
type CalendarParts struct {
	Year  int
	Month int
	Day   int
}

// EnhancedClientRecord is a client row extended with derived features.
type EnhancedClientRecord struct {
	ClientRecord

	Calendar             map[string]CalendarParts // keyed by calendar column name
	ContractDurationDays int                      // date_end - date_activ, negative values kept
	ConsumptionRatio     float64                  // cons_last_month / (cons_12m + 1)
	PriceVolatility      *float64                 // NULL when fewer than two price variations exist
	Flags                map[string]BinaryFlag    // keyed by flag column name

	EnergyDelta *float64 // NULL when the client has no price history
	PowerDelta  *float64 // NULL when the client has no price history
}

// HasPriceHistory reports whether seasonal deltas were merged into the record.
func (e *EnhancedClientRecord) HasPriceHistory() bool {
	return e.EnergyDelta != nil && e.PowerDelta != nil
}
