package wire

import (
	"github.com/Eyevinn/mp4ff/avc"
)

// ParseSPSDimensions decodes the coded picture width/height carried in
// an Annex-B-framed SPS NAL unit (nal_unit_type 7), per SPEC_FULL.md
// §4.4's resolutionChange requirement. The Exp-Golomb/scaling-list
// bitstream walk is delegated to mp4ff rather than hand-rolled, per the
// pack's own SPS-parsing idiom. ok is false when the payload is too
// short or not a parseable SPS (e.g. custom scaling lists mp4ff can't
// decode); callers treat that as "skip the resolutionChange event",
// never as fatal.
func ParseSPSDimensions(payload []byte) (w, h int, ok bool) {
	scLen := startCodeLen(payload)
	if scLen == 0 || len(payload) <= scLen {
		return 0, 0, false
	}
	sps, err := avc.ParseSPSNALUnit(payload[scLen:], true)
	if err != nil {
		return 0, 0, false
	}
	return int(sps.Width), int(sps.Height), true
}
