package models

import "encoding/json"

// Action is the closed set of JSON command verbs CommandHub and
// SessionManager dispatch on, per SPEC_FULL.md §4.6. An Action value
// outside this set is a rejected variant ("Unknown action"), never
// silently dispatched, per the DESIGN NOTES in spec.md §9.
type Action string

const (
	ActionGetAdbDevices    Action = "getAdbDevices"
	ActionStart            Action = "start"
	ActionDisconnect       Action = "disconnect"
	ActionVolume           Action = "volume"
	ActionGetVolume        Action = "getVolume"
	ActionNavAction        Action = "navAction"
	ActionWifiToggle       Action = "wifiToggle"
	ActionGetWifiStatus    Action = "getWifiStatus"
	ActionGetBatteryLevel  Action = "getBatteryLevel"
	ActionLaunchApp        Action = "launchApp"
	ActionAdbCommand       Action = "adbCommand"
	ActionStartDiagnostics Action = "startDiagnostics"
	ActionStopDiagnostics  Action = "stopDiagnostics"
	ActionStartHarTrace    Action = "startHarTrace"
	ActionStopHarTrace     Action = "stopHarTrace"
	ActionStartAdbShell    Action = "startAdbShell"
	ActionAdbShellInput    Action = "adbShellInput"
	ActionStopAdbShell     Action = "stopAdbShell"
)

// Envelope is the common header every client→server JSON message
// carries. ClientGateway decodes this first to route the remaining
// payload without committing to a concrete request shape.
type Envelope struct {
	Action    Action `json:"action"`
	CommandID string `json:"commandId,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
}

// ParseEnvelope extracts the routing header from a raw client text
// frame. The caller re-unmarshals raw into the concrete request type
// for Action once known.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// StartRequest is the "start" command payload.
type StartRequest struct {
	Envelope
	Video       bool        `json:"video"`
	Audio       bool        `json:"audio"`
	Control     bool        `json:"control"`
	MaxFPS      int         `json:"maxFps"`
	Bitrate     int         `json:"bitrate"`
	DisplayMode DisplayMode `json:"displayMode"`
	Resolution  string      `json:"resolution,omitempty"`
	Dpi         string      `json:"dpi,omitempty"`
	TurnScreenOff bool      `json:"turnScreenOff,omitempty"`
}

// VolumeRequest is the "volume" command payload.
type VolumeRequest struct {
	Envelope
	Value int `json:"value"`
}

// NavActionRequest is the "navAction" command payload.
type NavActionRequest struct {
	Envelope
	Key string `json:"key"`
}

// WifiToggleRequest is the "wifiToggle" command payload.
type WifiToggleRequest struct {
	Envelope
	Enable bool `json:"enable"`
}

// LaunchAppRequest is the "launchApp" command payload.
type LaunchAppRequest struct {
	Envelope
	PackageName string `json:"packageName"`
}

// AdbCommandRequest is the "adbCommand" envelope; CommandType selects
// among getDisplayList / setOverlay / setWmSize / setWmDensity /
// adbRotateScreen / cleanupAdb, per SPEC_FULL.md §4.6.
type AdbCommandRequest struct {
	Envelope
	CommandType string          `json:"commandType"`
	Params      json.RawMessage `json:"params,omitempty"`
}

// StartDiagnosticsRequest is the "startDiagnostics" command payload.
type StartDiagnosticsRequest struct {
	Envelope
	Diagnostics []string `json:"diagnostics"`
}

// StartHarTraceRequest is the "startHarTrace" command payload.
type StartHarTraceRequest struct {
	Envelope
	URL          string `json:"url"`
	HarFilename  string `json:"harFilename"`
	CaptureTime  int    `json:"captureTime"`
}

// AdbShellInputRequest is the "adbShellInput" command payload.
type AdbShellInputRequest struct {
	Envelope
	Input string `json:"input"`
}

// Response is the common shape every CommandHub reply carries, per
// SPEC_FULL.md §3 ("each client JSON command may carry commandId...").
type Response struct {
	Type      string `json:"type"`
	CommandID string `json:"commandId,omitempty"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewResponse builds a success/failure envelope for actionType's
// "<actionType>Response" reply, correlated by commandID.
func NewResponse(actionType, commandID string, success bool) Response {
	return Response{Type: actionType + "Response", CommandID: commandID, Success: success}
}

// StatusEvent is the unsolicited "status" notification (e.g.
// "Streaming started" / "Streaming stopped").
type StatusEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewStatusEvent(message string) StatusEvent {
	return StatusEvent{Type: "status", Message: message}
}

// ErrorEvent is the unsolicited "error" notification.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}

// DeviceNameEvent, VideoInfoEvent, AudioInfoEvent, ResolutionChangeEvent
// are the WireProtocol handshake events emitted to the owning client,
// per SPEC_FULL.md §4.2.
type DeviceNameEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func NewDeviceNameEvent(name string) DeviceNameEvent {
	return DeviceNameEvent{Type: "deviceName", Name: name}
}

type VideoInfoEvent struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func NewVideoInfoEvent(w, h int) VideoInfoEvent {
	return VideoInfoEvent{Type: "videoInfo", Width: w, Height: h}
}

type AudioInfoEvent struct {
	Type    string `json:"type"`
	CodecID uint32 `json:"codecId"`
}

func NewAudioInfoEvent(codecID uint32) AudioInfoEvent {
	return AudioInfoEvent{Type: "audioInfo", CodecID: codecID}
}

type ResolutionChangeEvent struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func NewResolutionChangeEvent(w, h int) ResolutionChangeEvent {
	return ResolutionChangeEvent{Type: "resolutionChange", Width: w, Height: h}
}
