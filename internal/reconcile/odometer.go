package reconcile

import "strconv"

// Plausible odometer range for the vehicle's service history. Readings the
// repair would push outside this window are left alone.
const (
	plausibleOdometerMin = 200_000
	plausibleOdometerMax = 500_000
)

// RepairOdometer fixes a recurring recognition error: a spurious leading "2"
// glued onto a six-digit reading (e.g. 2387551 for 387551). Only 7-digit
// readings above 1,000,000 starting with 2 are candidates, and the stripped
// value must land in the plausible range; everything else is returned
// unchanged.
func RepairOdometer(km int) int {
	if km <= 1_000_000 {
		return km
	}
	s := strconv.Itoa(km)
	if len(s) != 7 || s[0] != '2' {
		return km
	}
	fixed, err := strconv.Atoi(s[1:])
	if err != nil {
		return km
	}
	if fixed > plausibleOdometerMin && fixed < plausibleOdometerMax {
		return fixed
	}
	return km
}
