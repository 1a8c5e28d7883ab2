package commandhub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"androidcontrol/adb"
	"androidcontrol/models"
	"androidcontrol/session"
	"androidcontrol/store"
)

// adbDisplay is one parsed line of getDisplayList's output, in the
// client-facing JSON shape.
type adbDisplay struct {
	ID         int    `json:"id"`
	Resolution string `json:"resolution"`
}

func (h *Hub) handleAdbCommand(ctx context.Context, raw []byte, env models.Envelope, sink session.ClientSink) {
	var req models.AdbCommandRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(sink, models.ActionAdbCommand, env.CommandID, "malformed adbCommand request")
		return
	}
	device, ok := h.devices.get(env.DeviceID)
	if !ok {
		fail(sink, models.ActionAdbCommand, env.CommandID, "device not found")
		return
	}

	switch req.CommandType {
	case "getDisplayList":
		h.getDisplayList(ctx, device.ADBDeviceID, env.CommandID, req.CommandType, sink)
	case "setOverlay":
		h.setOverlay(ctx, req, device.ADBDeviceID, env.CommandID, req.CommandType, sink)
	case "setWmSize":
		h.setWmSize(ctx, req, device.ADBDeviceID, env.CommandID, req.CommandType, sink)
	case "setWmDensity":
		h.setWmDensity(ctx, req, device.ADBDeviceID, env.CommandID, req.CommandType, sink)
	case "adbRotateScreen":
		h.adbRotateScreen(ctx, req, device.ADBDeviceID, env.CommandID, req.CommandType, sink)
	case "cleanupAdb":
		h.cleanupAdb(ctx, device.ADBDeviceID, env.CommandID, req.CommandType, sink)
	default:
		fail(sink, models.Action(req.CommandType), env.CommandID, "unknown commandType")
	}
}

func (h *Hub) getDisplayList(ctx context.Context, serial, commandID, commandType string, sink session.ClientSink) {
	scid := models.NewScid()
	args := []string{
		"CLASSPATH=" + "/data/local/tmp/androidcontrol-server.jar",
		"app_process", "/", "com.androidcontrol.Server",
		"list_displays=true", fmt.Sprintf("scid=%s", scid),
	}
	out, err := h.bus.DisplayList(ctx, serial, args)
	if err != nil {
		fail(sink, models.Action(commandType), commandID, err.Error())
		return
	}
	parsed := adb.ParseDisplayList(out)
	displays := make([]adbDisplay, 0, len(parsed))
	for _, d := range parsed {
		displays = append(displays, adbDisplay{ID: d.ID, Resolution: d.Resolution})
	}
	payload := struct {
		Type      string       `json:"type"`
		CommandID string       `json:"commandId,omitempty"`
		Success   bool         `json:"success"`
		Displays  []adbDisplay `json:"displays"`
	}{Type: commandType + "Response", CommandID: commandID, Success: true, Displays: displays}
	sink.SendJSON(payload)
}

func (h *Hub) setOverlay(ctx context.Context, req models.AdbCommandRequest, serial, commandID, commandType string, sink session.ClientSink) {
	var params struct {
		Resolution string `json:"resolution"`
		Dpi        string `json:"dpi"`
	}
	_ = json.Unmarshal(req.Params, &params)
	spec := fmt.Sprintf("%s/%s", params.Resolution, params.Dpi)
	if err := h.bus.PutSetting(ctx, serial, "global", "overlay_display_devices", spec); err != nil {
		fail(sink, models.Action(commandType), commandID, err.Error())
		return
	}
	succeed(sink, models.Action(commandType), commandID, "ok")
}

func (h *Hub) setWmSize(ctx context.Context, req models.AdbCommandRequest, serial, commandID, commandType string, sink session.ClientSink) {
	var params struct {
		Resolution string `json:"resolution"`
	}
	_ = json.Unmarshal(req.Params, &params)
	if err := h.bus.WmSize(ctx, serial, params.Resolution); err != nil {
		fail(sink, models.Action(commandType), commandID, err.Error())
		return
	}
	succeed(sink, models.Action(commandType), commandID, "ok")
}

func (h *Hub) setWmDensity(ctx context.Context, req models.AdbCommandRequest, serial, commandID, commandType string, sink session.ClientSink) {
	var params struct {
		Dpi int `json:"dpi"`
	}
	_ = json.Unmarshal(req.Params, &params)
	if err := h.bus.WmDensity(ctx, serial, params.Dpi); err != nil {
		fail(sink, models.Action(commandType), commandID, err.Error())
		return
	}
	succeed(sink, models.Action(commandType), commandID, "ok")
}

// adbRotateScreen sets user_rotation directly, saving the prior state
// to the rotation cache first so cleanupAdb can restore it.
func (h *Hub) adbRotateScreen(ctx context.Context, req models.AdbCommandRequest, serial, commandID, commandType string, sink session.ClientSink) {
	var params struct {
		Rotation int `json:"rotation"`
	}
	_ = json.Unmarshal(req.Params, &params)

	prevUser, _ := h.bus.GetSetting(ctx, serial, "system", "user_rotation")
	prevAccel, _ := h.bus.GetSetting(ctx, serial, "system", "accelerometer_rotation")
	if h.rot != nil {
		_ = h.rot.Save(serial, store.RotationState{UserRotation: prevUser, AccelerometerRotation: prevAccel})
	}

	if err := h.bus.PutSetting(ctx, serial, "system", "accelerometer_rotation", "0"); err != nil {
		fail(sink, models.Action(commandType), commandID, err.Error())
		return
	}
	if err := h.bus.PutSetting(ctx, serial, "system", "user_rotation", strconv.Itoa(params.Rotation)); err != nil {
		fail(sink, models.Action(commandType), commandID, err.Error())
		return
	}
	succeed(sink, models.Action(commandType), commandID, "ok")
}

// cleanupAdb restores the cached rotation state and clears any
// overlay/wm overrides, per SPEC_FULL.md §4.6.
func (h *Hub) cleanupAdb(ctx context.Context, serial, commandID, commandType string, sink session.ClientSink) {
	if err := h.bus.PutSetting(ctx, serial, "global", "overlay_display_devices", ""); err != nil && h.log != nil {
		h.log.Warn("overlay reset failed")
	}
	_ = h.bus.WmSize(ctx, serial, "")
	_ = h.bus.WmDensity(ctx, serial, 0)

	if h.rot != nil {
		if state, ok, err := h.rot.Load(serial); err == nil && ok {
			_ = h.bus.PutSetting(ctx, serial, "system", "user_rotation", state.UserRotation)
			_ = h.bus.PutSetting(ctx, serial, "system", "accelerometer_rotation", state.AccelerometerRotation)
			_ = h.rot.Clear(serial)
		}
	}
	succeed(sink, models.Action(commandType), commandID, "ok")
}
