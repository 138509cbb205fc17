package scan

import (
	"time"

	"github.com/dosewatch/dosewatch/internal/forecast"
	"github.com/dosewatch/dosewatch/internal/notify"
)

// Classify assigns exactly one outcome to a prescription for the given
// reference date. The bool result reports whether a notification-worthy
// decision was produced.
//
// Precedence:
//
//  1. Run-out-today: the run-out date is today and no delivery was logged
//     today. A logged same-day delivery suppresses the alert; one still in
//     transit does not. Terminal: thresholds are not evaluated.
//  2. Past or exhausted: run-out strictly before today, or supply already
//     at zero. Silently skipped; a past run-out was handled or abandoned.
//  3. Threshold scan: thresholds ascending, first satisfied wins. A
//     threshold t is satisfied when runOutDate - t days is today or
//     earlier, so the first match is already the most urgent satisfied
//     threshold.
func Classify(p forecast.Prescription, info forecast.SupplyInfo, thresholds []int, today time.Time) (Decision, bool) {
	today = forecast.Midnight(today)
	runOut := forecast.Midnight(info.RunOutDate)

	if runOut.Equal(today) && !p.DeliveredOn(today) {
		return Decision{
			PrescriptionID: p.ID,
			Kind:           notify.KindRunOutToday,
			Supply:         info,
		}, true
	}

	if runOut.Before(today) || info.CurrentSupply <= 0 {
		return Decision{}, false
	}

	for _, t := range thresholds {
		trigger := runOut.AddDate(0, 0, -t)
		if !trigger.After(today) {
			return Decision{
				PrescriptionID:       p.ID,
				Kind:                 notify.KindReorderDue,
				UrgencyThresholdDays: t,
				Supply:               info,
			}, true
		}
	}
	return Decision{}, false
}
