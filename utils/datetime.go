package utils

import (
	"time"

	// Embedded zone database so the display timezone resolves on minimal images
	_ "time/tzdata"
)

// DisplayLayout renders instants as YYYY-MM-DDTHH:mm:ss.SSS±HH:mm
const DisplayLayout = "2006-01-02T15:04:05.000-07:00"

// DefaultTimezone is the zone auctions are displayed in
const DefaultTimezone = "Asia/Riyadh"

// LoadLocation resolves a zone name, falling back to DefaultTimezone when name is empty
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	return time.LoadLocation(name)
}

// FormatDisplay renders t in loc using DisplayLayout
func FormatDisplay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DisplayLayout)
}

// DefaultLocation is DefaultTimezone, or a fixed +03:00 zone if the zone database cannot resolve it
func DefaultLocation() *time.Location {
	loc, err := LoadLocation("")
	if err != nil {
		return time.FixedZone("+03", 3*60*60)
	}
	return loc
}
