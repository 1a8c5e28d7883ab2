package commandhub

// navKeycodes maps navAction's key names to Android key event codes,
// grounded on the teacher's service/control.go AKEYCODE_* constants.
var navKeycodes = map[string]int{
	"back":        4,
	"home":        3,
	"recents":     187,
	"power":       26,
	"volume_up":   24,
	"volume_down": 25,
	"enter":       66,
	"dpad_up":     19,
	"dpad_down":   20,
	"dpad_left":   21,
	"dpad_right":  22,
}
