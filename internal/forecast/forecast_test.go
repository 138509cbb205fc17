package forecast

import (
	"math"
	"testing"
	"time"
)

// Fixed reference date used across tests: 2026-03-15 (with time-of-day
// noise to prove normalization).
var refDate = time.Date(2026, time.March, 15, 14, 37, 9, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_SteadyConsumption(t *testing.T) {
	// dailyDose=1, startSupply=30, started 20 days ago, no deliveries:
	// 10 left, runs out in 10 days, reorder date is today.
	p := Prescription{
		ID:          "rx-1",
		DailyDose:   1,
		StartDate:   refDate.AddDate(0, 0, -20),
		StartSupply: 30,
	}
	info, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.CurrentSupply != 10 {
		t.Fatalf("current supply: want 10, got %v", info.CurrentSupply)
	}
	if info.DaysRemaining != 10 {
		t.Fatalf("days remaining: want 10, got %d", info.DaysRemaining)
	}
	wantRunOut := day(2026, time.March, 25)
	if !info.RunOutDate.Equal(wantRunOut) {
		t.Fatalf("run-out date: want %s, got %s", wantRunOut, info.RunOutDate)
	}
	if !info.ReorderDate.Equal(day(2026, time.March, 15)) {
		t.Fatalf("reorder date: want today, got %s", info.ReorderDate)
	}
}

func TestCompute_DeliveriesResummed(t *testing.T) {
	// dailyDose=2, start 10 days ago with 10, two deliveries of 8 each:
	// added=26, consumed=20, 6 left, floor(6/2)=3 days.
	p := Prescription{
		ID:          "rx-2",
		DailyDose:   2,
		StartDate:   refDate.AddDate(0, 0, -10),
		StartSupply: 10,
		SupplyLog: []DeliveryEvent{
			{Date: refDate.AddDate(0, 0, -3), Quantity: 8},
			{Date: refDate.AddDate(0, 0, -7), Quantity: 8},
		},
	}
	info, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.CurrentSupply != 6 {
		t.Fatalf("current supply: want 6, got %v", info.CurrentSupply)
	}
	if info.DaysRemaining != 3 {
		t.Fatalf("days remaining: want 3, got %d", info.DaysRemaining)
	}
	if !info.RunOutDate.Equal(day(2026, time.March, 18)) {
		t.Fatalf("run-out date: got %s", info.RunOutDate)
	}
}

func TestCompute_ClampsNonNegative(t *testing.T) {
	// Consumption far exceeds supply: the reported values clamp to zero
	// while the projected run-out date stays in the past.
	p := Prescription{
		ID:          "rx-3",
		DailyDose:   3,
		StartDate:   refDate.AddDate(0, 0, -100),
		StartSupply: 30,
	}
	info, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.CurrentSupply != 0 {
		t.Fatalf("current supply: want 0, got %v", info.CurrentSupply)
	}
	if info.DaysRemaining != 0 {
		t.Fatalf("days remaining: want 0, got %d", info.DaysRemaining)
	}
	// 30 doses covered the first 10 days; the remaining 90 are overdrawn.
	if got := DaysBetween(info.RunOutDate, refDate); got != 90 {
		t.Fatalf("run-out date: want 90 days past, got %d (%s)", got, info.RunOutDate)
	}
}

func TestCompute_ExhaustedProjectsPastRunOut(t *testing.T) {
	// Supply ran out 5 days ago: the run-out date must precede today so
	// the scan classifies it as past, not as running out today.
	p := Prescription{
		ID:          "rx-spent",
		DailyDose:   1,
		StartDate:   refDate.AddDate(0, 0, -10),
		StartSupply: 5,
	}
	info, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.CurrentSupply != 0 || info.DaysRemaining != 0 {
		t.Fatalf("want clamped zero supply, got %+v", info)
	}
	if !info.RunOutDate.Equal(day(2026, time.March, 10)) {
		t.Fatalf("run-out date: want 2026-03-10, got %s", info.RunOutDate)
	}
	if !info.ReorderDate.Equal(info.RunOutDate.AddDate(0, 0, -ReorderBufferDays)) {
		t.Fatalf("reorder date must track the past run-out date, got %s", info.ReorderDate)
	}
}

func TestCompute_FutureStartDate(t *testing.T) {
	// Tracking starts next week: nothing consumed yet.
	p := Prescription{
		ID:          "rx-4",
		DailyDose:   1,
		StartDate:   refDate.AddDate(0, 0, 7),
		StartSupply: 14,
	}
	info, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.CurrentSupply != 14 {
		t.Fatalf("current supply: want 14, got %v", info.CurrentSupply)
	}
	if info.DaysRemaining != 14 {
		t.Fatalf("days remaining: want 14, got %d", info.DaysRemaining)
	}
}

func TestCompute_ZeroDoseNeverRunsOut(t *testing.T) {
	p := Prescription{
		ID:          "rx-5",
		DailyDose:   0,
		StartDate:   refDate.AddDate(0, 0, -30),
		StartSupply: 5,
	}
	info, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.DaysRemaining != NeverRunsOutDays {
		t.Fatalf("days remaining: want sentinel %d, got %d", NeverRunsOutDays, info.DaysRemaining)
	}
}

func TestCompute_ReorderBuffer(t *testing.T) {
	cases := []int{0, 1, 5, 10, 45, 200}
	for _, supply := range cases {
		p := Prescription{
			ID:          "rx-6",
			DailyDose:   1,
			StartDate:   refDate,
			StartSupply: float64(supply),
		}
		info, err := Compute(p, refDate)
		if err != nil {
			t.Fatalf("supply=%d: unexpected error: %v", supply, err)
		}
		want := info.RunOutDate.AddDate(0, 0, -ReorderBufferDays)
		if !info.ReorderDate.Equal(want) {
			t.Fatalf("supply=%d: reorder date %s != run-out %s - %dd",
				supply, info.ReorderDate, info.RunOutDate, ReorderBufferDays)
		}
	}
}

func TestCompute_MalformedRecordZeroState(t *testing.T) {
	cases := []struct {
		name string
		p    Prescription
	}{
		{"missing start date", Prescription{ID: "rx-7", DailyDose: 1, StartSupply: 10}},
		{"nan dose", Prescription{ID: "rx-8", DailyDose: math.NaN(), StartDate: refDate, StartSupply: 10}},
		{"inf start supply", Prescription{ID: "rx-9", DailyDose: 1, StartDate: refDate, StartSupply: math.Inf(1)}},
		{"nan delivery", Prescription{
			ID: "rx-10", DailyDose: 1, StartDate: refDate, StartSupply: 10,
			SupplyLog: []DeliveryEvent{{Date: refDate, Quantity: math.NaN()}},
		}},
	}
	for _, tc := range cases {
		info, err := Compute(tc.p, refDate)
		if err == nil {
			t.Fatalf("%s: want error", tc.name)
		}
		if info.CurrentSupply != 0 || info.DaysRemaining != 0 {
			t.Fatalf("%s: want zero-state, got %+v", tc.name, info)
		}
		if !SameDay(info.RunOutDate, refDate) || !SameDay(info.ReorderDate, refDate) {
			t.Fatalf("%s: zero-state dates must equal today, got %+v", tc.name, info)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	p := Prescription{
		ID:          "rx-11",
		DailyDose:   1.5,
		StartDate:   refDate.AddDate(0, 0, -12),
		StartSupply: 40,
		SupplyLog:   []DeliveryEvent{{Date: refDate.AddDate(0, 0, -2), Quantity: 30}},
	}
	first, err := Compute(p, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Compute(p, refDate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestDeliveredOn(t *testing.T) {
	p := Prescription{
		SupplyLog: []DeliveryEvent{
			{Date: time.Date(2026, time.March, 15, 18, 30, 0, 0, time.UTC), Quantity: 30},
		},
	}
	if !p.DeliveredOn(refDate) {
		t.Fatal("delivery at 18:30 must match the same calendar day")
	}
	if p.DeliveredOn(refDate.AddDate(0, 0, 1)) {
		t.Fatal("no delivery expected on the next day")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, time.February, 27, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, time.March, 2, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 3 {
		t.Fatalf("want 3 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Fatalf("want -3 days, got %d", got)
	}
}

func TestDaysBetween_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// US DST starts 2026-03-08: Mar 7 to Mar 9 spans only 47 hours but is
	// still 2 calendar days.
	spring7 := time.Date(2026, time.March, 7, 0, 0, 0, 0, loc)
	spring9 := time.Date(2026, time.March, 9, 0, 0, 0, 0, loc)
	if got := DaysBetween(spring7, spring9); got != 2 {
		t.Fatalf("spring forward: want 2 days, got %d", got)
	}
	if got := DaysBetween(spring9, spring7); got != -2 {
		t.Fatalf("spring forward reversed: want -2 days, got %d", got)
	}

	// DST ends 2026-11-01: Oct 31 to Nov 2 spans 49 hours, still 2 days.
	fall31 := time.Date(2026, time.October, 31, 0, 0, 0, 0, loc)
	fall2 := time.Date(2026, time.November, 2, 0, 0, 0, 0, loc)
	if got := DaysBetween(fall31, fall2); got != 2 {
		t.Fatalf("fall back: want 2 days, got %d", got)
	}
}

func TestCompute_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Started 2 calendar days before a scan that crosses spring forward:
	// exactly 2 doses consumed despite the missing hour.
	p := Prescription{
		ID:          "rx-dst",
		DailyDose:   1,
		StartDate:   time.Date(2026, time.March, 7, 8, 0, 0, 0, loc),
		StartSupply: 10,
	}
	info, err := Compute(p, time.Date(2026, time.March, 9, 8, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.CurrentSupply != 8 {
		t.Fatalf("current supply: want 8, got %v", info.CurrentSupply)
	}
	if info.DaysRemaining != 8 {
		t.Fatalf("days remaining: want 8, got %d", info.DaysRemaining)
	}
}
