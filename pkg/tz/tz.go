package tz

import (
	"fmt"
	"time"
)

// Load returns the named location, or time.Local when name is empty.
// All event dates and times are interpreted in this single location.
func Load(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("tz: load %s: %w", name, err)
	}
	return loc, nil
}
