package forecast

import "sort"

// ResolveThresholds returns the day-counts at which a reminder should fire
// for a prescription, sorted ascending so the most urgent threshold is
// evaluated first.
//
// Precedence is an explicit ordered fallback chain: prescription-level
// thresholds, then the owning user's defaults, then the hardcoded
// DefaultThresholdDays. Value ranges are not validated here; callers store
// only positive integers.
func ResolveThresholds(p Prescription, s UserSettings) []int {
	src := p.EmailThresholds
	if len(src) == 0 {
		src = s.DefaultEmailThresholds
	}
	if len(src) == 0 {
		return []int{DefaultThresholdDays}
	}
	out := make([]int, len(src))
	copy(out, src)
	sort.Ints(out)
	return out
}
