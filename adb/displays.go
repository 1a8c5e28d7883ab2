package adb

import (
	"regexp"
	"strconv"
)

var displayListLine = regexp.MustCompile(`--display-id=(\d+)\s*\(([^)]+)\)`)

// Display is one entry of the streaming server's list_displays=true
// output, shared by CommandHub's getDisplayList and the overlay
// display mode's before/after diff.
type Display struct {
	ID         int
	Resolution string
}

// ParseDisplayList parses DisplayList's stdout into Display records.
func ParseDisplayList(out string) []Display {
	matches := displayListLine.FindAllStringSubmatch(out, -1)
	displays := make([]Display, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		displays = append(displays, Display{ID: id, Resolution: m[2]})
	}
	return displays
}
