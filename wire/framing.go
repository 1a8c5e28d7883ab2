package wire

import (
	"encoding/binary"
	"io"
	"net"

	"androidcontrol/models"
)

// Unit header flags, per SPEC_FULL.md §4.2.
const (
	flagConfig    byte = 0x80
	flagKeyFrame  byte = 0x40
)

// Unit is one device→server video/audio unit: pts, flags, and payload.
type Unit struct {
	PTS     uint64
	IsConfig bool
	IsKey    bool
	Payload  []byte
}

// ReadUnit reads one length-prefixed unit from a media socket:
// pts:u64 BE, flags:u8, len:u32 BE, followed by len payload bytes.
// A zero-length unit is returned with a nil Payload and no error; the
// caller drops it with a warning per SPEC_FULL.md §8 boundary behavior.
func ReadUnit(conn net.Conn) (Unit, error) {
	hdr := make([]byte, 13)
	if _, err := io.ReadFull(conn, hdr); err != nil {
		return Unit{}, err
	}
	pts := binary.BigEndian.Uint64(hdr[0:8])
	flags := hdr[8]
	length := binary.BigEndian.Uint32(hdr[9:13])

	u := Unit{
		PTS:      pts,
		IsConfig: flags&flagConfig != 0,
		IsKey:    flags&flagKeyFrame != 0,
	}
	if length == 0 {
		return u, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return Unit{}, err
	}
	u.Payload = payload
	return u, nil
}

// startCodeLen returns the Annex-B start code length at the front of
// buf (3 or 4 bytes), or 0 if none is present.
func startCodeLen(buf []byte) int {
	if len(buf) >= 4 && buf[0] == 0 && buf[1] == 0 && buf[2] == 0 && buf[3] == 1 {
		return 4
	}
	if len(buf) >= 3 && buf[0] == 0 && buf[1] == 0 && buf[2] == 1 {
		return 3
	}
	return 0
}

// FirstNALType returns the nal_unit_type of the first NAL in an
// Annex-B-framed payload (start code + header byte), and whether one
// was found at all.
func FirstNALType(payload []byte) (nalType byte, ok bool) {
	scLen := startCodeLen(payload)
	if scLen == 0 || len(payload) <= scLen {
		return 0, false
	}
	header := payload[scLen]
	return header & 0x1f, true
}

// ExtractSPSProfile reads the profile_idc/constraint-flags/level_idc
// bytes at fixed offsets 1, 2, 3 after the NAL header of an SPS NAL
// (nal_unit_type 7), per SPEC_FULL.md §4.2.
func ExtractSPSProfile(payload []byte) (profile, compat, level byte, ok bool) {
	scLen := startCodeLen(payload)
	if scLen == 0 {
		return 0, 0, 0, false
	}
	// scLen (start code) + 1 (NAL header) + 3 (profile/compat/level).
	need := scLen + 4
	if len(payload) < need {
		return 0, 0, 0, false
	}
	profile = payload[scLen+1]
	compat = payload[scLen+2]
	level = payload[scLen+3]
	return profile, compat, level, true
}

const (
	nalTypeNonIDR byte = 1
	nalTypeIDR    byte = 5
	nalTypeSPS    byte = 7
)

// ClassifyVideoUnit decides which binary envelope a video unit maps
// to, per SPEC_FULL.md §4.2 and §3.
func ClassifyVideoUnit(u Unit) (tag models.EnvelopeTag, isConfig bool) {
	if u.IsConfig {
		return models.EnvelopeH264Config, true
	}
	if nt, ok := FirstNALType(u.Payload); ok && nt == nalTypeIDR {
		return models.EnvelopeH264KeyFrame, false
	}
	return models.EnvelopeH264Delta, false
}
