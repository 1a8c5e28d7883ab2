package adb

import (
	"context"
	"strings"

	"androidcontrol/errs"
	"androidcontrol/models"
)

// List enumerates attached devices in every ADB-reported state
// (device/unauthorized/offline), per SPEC_FULL.md §4.6 getAdbDevices.
// When the same physical device is reachable over both USB and Wi-Fi
// transports, the Wi-Fi identity is kept — ground on the teacher's
// deduplicateDevices pass.
func (b *DeviceBus) List(ctx context.Context) ([]models.Device, error) {
	out, err := b.command(ctx, "", "devices", "-l").Output()
	if err != nil {
		return nil, errs.Wrap(errs.ErrAdbUnavailable, err.Error())
	}
	devices := parseDeviceList(string(out))
	b.enrichAll(ctx, devices)
	return deduplicateDevices(devices), nil
}

// parseDeviceList parses `adb devices -l` output into Device records.
// Every state (device/unauthorized/offline) is kept; callers that only
// want streamable devices filter on State == models.DeviceOnline
// themselves.
func parseDeviceList(output string) []models.Device {
	var devices []models.Device
	lines := strings.Split(output, "\n")

	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		serial, rawState := parts[0], parts[1]

		device := models.Device{
			ID:          "device_" + serial,
			ADBDeviceID: serial,
			Name:        serial,
			State:       mapState(rawState),
		}
		for _, part := range parts[2:] {
			if name, ok := strings.CutPrefix(part, "model:"); ok {
				device.Name = strings.ReplaceAll(name, "_", " ")
			}
		}
		devices = append(devices, device)
	}
	return devices
}

func mapState(raw string) models.DeviceState {
	switch raw {
	case "device":
		return models.DeviceOnline
	case "unauthorized":
		return models.DeviceUnauthorized
	default:
		return models.DeviceOffline
	}
}

// enrichAll fills in best-effort metadata (Android version, battery,
// resolution, hardware serial) for online devices. Failures are
// tolerated: a device missing enrichment is still listed.
func (b *DeviceBus) enrichAll(ctx context.Context, devices []models.Device) {
	for i := range devices {
		if devices[i].State != models.DeviceOnline {
			continue
		}
		serial := devices[i].ADBDeviceID
		if v, err := b.ShellCollect(ctx, serial, "getprop", "ro.build.version.release"); err == nil {
			devices[i].AndroidVersion = v
		}
		if hw, err := b.ShellCollect(ctx, serial, "getprop", "ro.serialno"); err == nil && hw != "" {
			devices[i].HardwareSerial = hw
		} else {
			devices[i].HardwareSerial = serial
		}
		if res, err := b.screenResolution(ctx, serial); err == nil {
			devices[i].Resolution = res
		}
		if lvl, err := b.batteryLevelRaw(ctx, serial); err == nil {
			devices[i].Battery = lvl
		}
	}
}

// isWiFiConnection reports whether a device's transport id is a
// Wi-Fi ip:port pair rather than a USB serial.
func isWiFiConnection(adbDeviceID string) bool {
	return strings.Contains(adbDeviceID, ":")
}

// deduplicateDevices collapses USB/Wi-Fi duplicates of the same
// physical device (matched by hardware serial), preferring the Wi-Fi
// transport when both are present.
func deduplicateDevices(devices []models.Device) []models.Device {
	bySerial := make(map[string]models.Device)
	order := make([]string, 0, len(devices))

	for _, d := range devices {
		key := d.HardwareSerial
		if key == "" {
			key = d.ADBDeviceID
		}
		existing, seen := bySerial[key]
		if !seen {
			bySerial[key] = d
			order = append(order, key)
			continue
		}
		if isWiFiConnection(d.ADBDeviceID) && !isWiFiConnection(existing.ADBDeviceID) {
			bySerial[key] = d
		}
	}

	result := make([]models.Device, 0, len(order))
	for _, key := range order {
		result = append(result, bySerial[key])
	}
	return result
}
