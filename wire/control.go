package wire

import "fmt"

// controlTypeNames names the control message types the server
// recognizes for logging/validation only, per SPEC_FULL.md §4.2; the
// remaining payload bytes are forwarded opaque.
var controlTypeNames = map[byte]string{
	2:  "injectTouch",
	3:  "scroll",
	4:  "backOrScreenOn",
	5:  "expandNotification",
	6:  "expandSettings",
	10: "setScreenPowerMode",
}

// ValidateControlFrame rejects a malformed (empty) client→device
// control frame. Malformed frames are dropped with a warning; they are
// never fatal to the connection, per SPEC_FULL.md §4.2/§7.
func ValidateControlFrame(frame []byte) error {
	if len(frame) == 0 {
		return fmt.Errorf("empty control frame")
	}
	return nil
}

// ControlTypeName returns a human-readable name for a control frame's
// type byte, for logging. Unrecognized types still forward normally;
// the name is purely diagnostic.
func ControlTypeName(frame []byte) string {
	if len(frame) == 0 {
		return "empty"
	}
	if name, ok := controlTypeNames[frame[0]]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", frame[0])
}

// IsEssentialControl reports whether a control frame must never be
// dropped under backpressure, per SPEC_FULL.md §4.5. Every type other
// than inject-touch, recognized or not, is essential; inject-touch
// frames are essential only for DOWN/UP, which isTouchDownOrUp reads
// from the action byte since the type byte alone does not carry it.
func IsEssentialControl(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	switch frame[0] {
	case CtrlSetScreenPowerMode:
		return true
	case CtrlInjectTouch:
		return isTouchDownOrUp(frame)
	default:
		return true
	}
}

const (
	CtrlInjectTouch        = 2
	CtrlSetScreenPowerMode = 10
)

// Touch action values from the scrcpy control-message wire format:
// byte 1 of an inject-touch-event frame is the MotionEvent action.
const (
	touchActionDown = 0
	touchActionUp   = 1
	touchActionMove = 2
)

// isTouchDownOrUp inspects the action byte of an inject-touch-event
// frame (type=2). Frames too short to carry an action byte are
// treated as non-essential so the drop policy degrades safely.
func isTouchDownOrUp(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	action := frame[1]
	return action == touchActionDown || action == touchActionUp
}
