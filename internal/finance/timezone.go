package finance

import "time"

// exchangeLocation returns the exchange's zone, falling back to a fixed offset
// if tzdata is missing or the name is empty.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("EXCH", gmtOffset)
}
