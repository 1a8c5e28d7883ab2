package session

import (
	"net"

	"androidcontrol/models"
	"androidcontrol/wire"

	"go.uber.org/zap"
)

// mediaPump reads framed units from one device socket (video or
// audio), re-frames them into client envelopes, and applies the
// back-pressure drop policy from SPEC_FULL.md §4.4. One instance runs
// per media socket for the lifetime of a Running session.
type mediaPump struct {
	kind       wire.SocketKind
	conn       net.Conn
	sink       ClientSink
	log        *zap.Logger
	onError    func(error)
	dropped    int64
	lastWidth  int
	lastHeight int
	sawConfig  bool
}

func newMediaPump(kind wire.SocketKind, conn net.Conn, sink ClientSink, log *zap.Logger, onError func(error)) *mediaPump {
	return &mediaPump{kind: kind, conn: conn, sink: sink, log: log, onError: onError}
}

// run reads units until the socket errs or EOFs. A read failure
// transitions the owning session to Draining via onError, per
// SPEC_FULL.md §4.4.
func (p *mediaPump) run() {
	for {
		unit, err := wire.ReadUnit(p.conn)
		if err != nil {
			p.onError(err)
			return
		}
		if len(unit.Payload) == 0 {
			// Zero-length unit: dropped with a warning, no envelope
			// emitted, per SPEC_FULL.md §8 boundary behavior.
			if p.log != nil {
				p.log.Warn("dropped zero-length media unit", zap.String("kind", kindName(p.kind)))
			}
			continue
		}
		if p.kind == wire.KindVideo {
			p.handleVideo(unit)
		} else {
			p.handleAudio(unit)
		}
	}
}

func (p *mediaPump) handleVideo(u wire.Unit) {
	if u.IsConfig {
		profile, compat, level, ok := wire.ExtractSPSProfile(u.Payload)
		if !ok {
			return
		}
		w, h := parseConfigDims(u.Payload)
		if w > 0 && h > 0 && p.sawConfig && (w != p.lastWidth || h != p.lastHeight) {
			p.sink.SendJSON(models.NewResolutionChangeEvent(w, h))
		}
		if w > 0 && h > 0 {
			p.lastWidth, p.lastHeight = w, h
		}
		p.sawConfig = true
		p.sink.SendBinary(wire.EncodeH264Config(profile, compat, level))
		return
	}

	if p.backpressured() {
		tag, _ := wire.ClassifyVideoUnit(u)
		if tag != models.EnvelopeH264KeyFrame {
			p.dropped++
			return
		}
	}
	tag, _ := wire.ClassifyVideoUnit(u)
	p.sink.SendBinary(wire.EncodeTimestamped(tag, u.PTS, u.Payload))
}

func (p *mediaPump) handleAudio(u wire.Unit) {
	if u.IsConfig {
		p.sink.SendBinary(wire.EncodeAACConfig(u.Payload))
		return
	}
	if p.backpressured() {
		p.dropped++
		return
	}
	p.sink.SendBinary(wire.EncodeTimestamped(models.EnvelopeAACFrame, u.PTS, u.Payload))
}

func (p *mediaPump) backpressured() bool {
	return p.sink.BufferedBytes() > MaxClientBufferBytes
}

func kindName(k wire.SocketKind) string {
	switch k {
	case wire.KindVideo:
		return "video"
	case wire.KindAudio:
		return "audio"
	default:
		return "control"
	}
}

// parseConfigDims extracts width/height from a config unit's SPS to
// decide whether a resolutionChange event is due; a miss here just
// means the event is skipped, it never blocks the 0x10 envelope
// itself.
func parseConfigDims(payload []byte) (w, h int) {
	w, h, ok := wire.ParseSPSDimensions(payload)
	if !ok {
		return 0, 0
	}
	return w, h
}
