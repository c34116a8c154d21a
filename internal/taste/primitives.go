package taste

import "time"

// clamp bounds v to [lo, hi]. Applied unconditionally to every computed
// weight even though normal inputs never reach the bounds; the cache must
// never see an out-of-range signal no matter what upstream does.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hourOf extracts the hour-of-day from the timestamp as encoded. No zone
// conversion: the offset the producer stamped is the offset that counts.
func hourOf(t time.Time) int {
	return t.Hour()
}

// isLateHour reports whether the encoded hour is in the late-evening band.
// The boundary is exact: 20:00 is late, 19:59 is not.
func isLateHour(t time.Time) bool {
	return hourOf(t) >= lateHourStart
}
