package parsing

import "strings"

// SplitVenue splits "Comarca - UF" on its last hyphen.
// A venue without a hyphen is returned whole as comarca with an empty state.
func SplitVenue(venue string) (comarca, state string) {
	v := strings.TrimSpace(venue)
	i := strings.LastIndex(v, "-")
	if i < 0 {
		return v, ""
	}
	return strings.TrimSpace(v[:i]), strings.TrimSpace(v[i+1:])
}

// VenueState returns the state code of a venue string.
func VenueState(venue string) string {
	_, st := SplitVenue(venue)
	return st
}

// VenueComarca returns the comarca part of a venue string.
func VenueComarca(venue string) string {
	c, _ := SplitVenue(venue)
	return c
}
