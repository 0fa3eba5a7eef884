package billing

// MarkupSource looks up an account's configured cost markup percentage.
type MarkupSource interface {
	Markup(accountID string) (float64, bool)
}

// StaticMarkups is a fixed account id to markup percentage table.
type StaticMarkups map[string]float64

func (m StaticMarkups) Markup(accountID string) (float64, bool) {
	pct, ok := m[accountID]
	return pct, ok
}

// MarkupFactor returns the cost multiplier for an account. A non-zero
// override wins over the configured table; with neither the factor is 1.
func MarkupFactor(override float64, source MarkupSource, accountID string) float64 {
	pct := override
	if pct == 0 && source != nil {
		pct, _ = source.Markup(accountID)
	}
	if pct == 0 {
		return 1
	}
	return 1 + pct/100
}
