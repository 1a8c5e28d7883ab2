package wire

import (
	"encoding/binary"

	"androidcontrol/models"
)

// EncodeH264Config builds the 0x10 envelope carrying the SPS
// profile/compatibility/level triplet extracted from the config unit.
func EncodeH264Config(profile, compat, level byte) []byte {
	return []byte{byte(models.EnvelopeH264Config), profile, compat, level}
}

// EncodeTimestamped builds a ts-headered envelope (0x11, 0x12, or
// 0x21): type byte, 8-byte big-endian microsecond timestamp, payload.
func EncodeTimestamped(tag models.EnvelopeTag, ts uint64, payload []byte) []byte {
	out := make([]byte, 1+8+len(payload))
	out[0] = byte(tag)
	binary.BigEndian.PutUint64(out[1:9], ts)
	copy(out[9:], payload)
	return out
}

// EncodeAACConfig builds the 0x20 envelope carrying the raw
// AudioSpecificConfig bytes.
func EncodeAACConfig(payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(models.EnvelopeAACConfig)
	copy(out[1:], payload)
	return out
}

// EncodeLegacy builds the untimestamped legacy 0x00/0x01 envelopes.
// Retained for decode/encode symmetry only: per spec.md §9 these tags
// belong to an older on-device server path that current servers may
// not emit. The session media pump never emits them.
func EncodeLegacy(tag models.EnvelopeTag, payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(tag)
	copy(out[1:], payload)
	return out
}

// DecodeEnvelope is the inverse of the Encode* family: given a full
// envelope, it returns its tag, optional timestamp, and payload.
// Used by tests asserting the encode/decode round-trip in
// SPEC_FULL.md §8.
func DecodeEnvelope(buf []byte) (tag models.EnvelopeTag, ts uint64, payload []byte, ok bool) {
	if len(buf) == 0 {
		return 0, 0, nil, false
	}
	tag = models.EnvelopeTag(buf[0])
	rest := buf[1:]
	switch tag {
	case models.EnvelopeH264Config:
		return tag, 0, rest, true
	case models.EnvelopeH264KeyFrame, models.EnvelopeH264Delta, models.EnvelopeAACFrame:
		if len(rest) < 8 {
			return 0, 0, nil, false
		}
		ts = binary.BigEndian.Uint64(rest[:8])
		return tag, ts, rest[8:], true
	default:
		return tag, 0, rest, true
	}
}
