package scan

import (
	"testing"
	"time"

	"github.com/dosewatch/dosewatch/internal/forecast"
	"github.com/dosewatch/dosewatch/internal/notify"
)

var today = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

// rxRunningOut builds a prescription whose forecast runs out in daysLeft
// days: dose 1/day, started 10 days ago with 10+daysLeft doses.
func rxRunningOut(id string, daysLeft int) forecast.Prescription {
	return forecast.Prescription{
		ID:          id,
		UserID:      "u1",
		Name:        "Med " + id,
		DailyDose:   1,
		StartDate:   today.AddDate(0, 0, -10),
		StartSupply: float64(10 + daysLeft),
	}
}

func mustCompute(t *testing.T, p forecast.Prescription) forecast.SupplyInfo {
	t.Helper()
	info, err := forecast.Compute(p, today)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return info
}

func TestClassify_RunOutToday(t *testing.T) {
	p := rxRunningOut("rx-1", 0)
	info := mustCompute(t, p)

	d, ok := Classify(p, info, []int{10}, today)
	if !ok {
		t.Fatal("want a decision")
	}
	if d.Kind != notify.KindRunOutToday {
		t.Fatalf("want run-out-today, got %s", d.Kind)
	}
}

func TestClassify_RunOutTodayBeatsThresholds(t *testing.T) {
	// Running out today also satisfies every threshold; run-out-today is
	// terminal and must win.
	p := rxRunningOut("rx-1", 0)
	p.StartSupply++ // one dose left: supply > 0, thresholds all satisfied
	info := mustCompute(t, p)
	if info.DaysRemaining != 1 {
		t.Fatalf("fixture: want 1 day remaining, got %d", info.DaysRemaining)
	}

	d, ok := Classify(p, info, []int{10, 5, 3}, today.AddDate(0, 0, 1))
	if !ok || d.Kind != notify.KindRunOutToday {
		t.Fatalf("want run-out-today over threshold scan, got %+v ok=%v", d, ok)
	}
}

func TestClassify_SameDayDeliverySuppresses(t *testing.T) {
	p := rxRunningOut("rx-1", 0)
	p.SupplyLog = []forecast.DeliveryEvent{
		{Date: today.Add(11 * time.Hour), Quantity: 0}, // logged today
	}
	info := mustCompute(t, p)

	d, ok := Classify(p, info, nil, today)
	if ok && d.Kind == notify.KindRunOutToday {
		t.Fatal("logged same-day delivery must suppress run-out-today")
	}
}

func TestClassify_PastOrExhaustedSilent(t *testing.T) {
	// Ran out five days ago: zero supply, run-out in the past.
	p := forecast.Prescription{
		ID:          "rx-1",
		DailyDose:   1,
		StartDate:   today.AddDate(0, 0, -15),
		StartSupply: 10,
	}
	info := mustCompute(t, p)
	if info.CurrentSupply != 0 {
		t.Fatalf("fixture: want exhausted supply, got %v", info.CurrentSupply)
	}

	if _, ok := Classify(p, info, []int{10, 5, 3}, today); ok {
		t.Fatal("past/exhausted prescription must produce no notification")
	}
}

func TestClassify_PastRunOutDateSkipped(t *testing.T) {
	p := rxRunningOut("rx-1", 2)
	info := mustCompute(t, p)

	// Re-evaluate five days later: run-out date now in the past.
	if _, ok := Classify(p, info, []int{10}, today.AddDate(0, 0, 5)); ok {
		t.Fatal("run-out date in the past must produce no notification")
	}
}

func TestClassify_ThresholdSelectionMonotonicMinimal(t *testing.T) {
	// 3 days of supply left: trigger dates for thresholds 10, 5, 3 are all
	// today or past, so the smallest satisfied threshold is selected.
	p := rxRunningOut("rx-1", 3)
	info := mustCompute(t, p)

	d, ok := Classify(p, info, []int{3, 5, 10}, today)
	if !ok {
		t.Fatal("want a decision")
	}
	if d.Kind != notify.KindReorderDue {
		t.Fatalf("want reorder-due, got %s", d.Kind)
	}
	if d.UrgencyThresholdDays != 3 {
		t.Fatalf("want most urgent threshold 3, got %d", d.UrgencyThresholdDays)
	}
}

func TestClassify_FirstSatisfiedThresholdOnly(t *testing.T) {
	// 7 days left: threshold 3 not yet satisfied (trigger in 4 days),
	// threshold 10 satisfied 3 days ago.
	p := rxRunningOut("rx-1", 7)
	info := mustCompute(t, p)

	d, ok := Classify(p, info, []int{3, 10}, today)
	if !ok || d.UrgencyThresholdDays != 10 {
		t.Fatalf("want threshold 10, got %+v ok=%v", d, ok)
	}
}

func TestClassify_NoThresholdSatisfied(t *testing.T) {
	p := rxRunningOut("rx-1", 30)
	info := mustCompute(t, p)

	if _, ok := Classify(p, info, []int{10, 5, 3}, today); ok {
		t.Fatal("30 days of supply must satisfy no threshold")
	}
}
