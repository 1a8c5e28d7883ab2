// Package wire implements the on-device streaming server's wire
// protocol: the per-socket handshake, video/audio unit framing, the
// client-facing binary envelope encoding, and control-message parsing,
// per SPEC_FULL.md §4.2.
package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"time"

	"androidcontrol/errs"
	"androidcontrol/models"
)

// HandshakeTimeout bounds each socket's handshake, per SPEC_FULL.md §5.
const HandshakeTimeout = 10 * time.Second

// deviceNameFieldLen is the fixed width of the null-padded device name
// record read once, on the first socket of a session to complete its
// handshake.
const deviceNameFieldLen = 64

// SocketKind identifies which of the three per-session sockets a
// handshake is being run against.
type SocketKind int

const (
	KindVideo SocketKind = iota
	KindAudio
	KindControl
)

// ReadDummyByte consumes the single 0x00 handshake byte every socket
// sends first. Any other value is a protocol violation.
func ReadDummyByte(conn net.Conn) error {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return errs.Wrap(errs.ErrHandshakeBadDummy, err.Error())
	}
	if buf[0] != 0x00 {
		return errs.ErrHandshakeBadDummy
	}
	return nil
}

// ReadDeviceName reads the 64-byte null-padded device name record.
// Only the first socket to complete its handshake in a session reads
// this record, per SPEC_FULL.md §4.2 step 2.
func ReadDeviceName(conn net.Conn) (string, error) {
	buf := make([]byte, deviceNameFieldLen)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return "", errs.Wrap(err, "read device name record")
	}
	trimmed := bytes.TrimRight(buf, "\x00")
	return string(trimmed), nil
}

// ReadVideoCodec reads the video socket's codec id, width, and height.
// Only models.CodecH264 is recognized; anything else is
// ErrUnsupportedCodec.
func ReadVideoCodec(conn net.Conn) (codecID uint32, width, height int, err error) {
	hdr := make([]byte, 12)
	if _, err = io.ReadFull(conn, hdr); err != nil {
		return 0, 0, 0, errs.Wrap(err, "read video codec header")
	}
	codecID = binary.BigEndian.Uint32(hdr[0:4])
	if codecID != models.CodecH264 {
		return codecID, 0, 0, errs.ErrUnsupportedCodec
	}
	width = int(binary.BigEndian.Uint32(hdr[4:8]))
	height = int(binary.BigEndian.Uint32(hdr[8:12]))
	return codecID, width, height, nil
}

// AudioCodecResult is the outcome of the audio socket's codec
// handshake: either a recognized codec id, or "not available" — which
// per SPEC_FULL.md §4.2 is not an error.
type AudioCodecResult struct {
	CodecID   uint32
	Available bool
}

// ReadAudioCodec reads the audio socket's codec id. A zero id, EOF, or
// any read error before the first byte arrives means audio is not available on this device/session and the caller
// must close the socket and disable audio, without treating it as a
// handshake failure.
func ReadAudioCodec(conn net.Conn) (AudioCodecResult, error) {
	buf := make([]byte, 4)
	n, err := io.ReadFull(conn, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF || n == 0 {
			return AudioCodecResult{Available: false}, nil
		}
		return AudioCodecResult{}, errs.Wrap(err, "read audio codec header")
	}
	codecID := binary.BigEndian.Uint32(buf)
	if codecID == 0 {
		return AudioCodecResult{Available: false}, nil
	}
	if codecID != models.CodecAAC {
		return AudioCodecResult{}, errs.ErrUnsupportedCodec
	}
	return AudioCodecResult{CodecID: codecID, Available: true}, nil
}
