package models

// EnvelopeTag is the one-byte type discriminator of the server→client
// binary packet envelope, per SPEC_FULL.md §3.
type EnvelopeTag byte

const (
	EnvelopeLegacyH264AU  EnvelopeTag = 0x00
	EnvelopeLegacyAACADTS EnvelopeTag = 0x01
	EnvelopeH264Config    EnvelopeTag = 0x10
	EnvelopeH264KeyFrame  EnvelopeTag = 0x11
	EnvelopeH264Delta     EnvelopeTag = 0x12
	EnvelopeAACConfig     EnvelopeTag = 0x20
	EnvelopeAACFrame      EnvelopeTag = 0x21
)

// Codec ids recognized on the video/audio handshake, per SPEC_FULL.md
// §4.2. These are the ASCII tags scrcpy's wire protocol uses
// ("h264" / "aac" read as big-endian u32).
const (
	CodecH264 uint32 = 0x68323634
	CodecAAC  uint32 = 0x00616163
)

// Control message type tags the server recognizes for logging and
// validation, per SPEC_FULL.md §4.2. Payload content past the type
// byte is opaque to the server.
const (
	CtrlInjectTouch        = 2
	CtrlScroll             = 3
	CtrlBackOrScreenOn     = 4
	CtrlExpandNotification = 5
	CtrlExpandSettings     = 6
	CtrlSetScreenPowerMode = 10
)
