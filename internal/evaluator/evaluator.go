// Package evaluator classifies single sensor readings against their ranges.
package evaluator

import "github.com/SaloniGupta6/Steel-Guardian/internal/domain"

// Classify grades one reading. The alert threshold is checked first and is
// reached at its bounds: value <= alert.Min or value >= alert.Max is critical.
// The normal range is inclusive, so only a value strictly outside it is a
// warning. Missing bounds never trigger. There is no hysteresis.
func Classify(value float64, normal, alert domain.Range) domain.SensorStatus {
	switch {
	case alert.Reached(value):
		return domain.SensorCritical
	case normal.Outside(value):
		return domain.SensorWarning
	default:
		return domain.SensorNormal
	}
}
