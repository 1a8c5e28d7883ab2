package adb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"androidcontrol/errs"
)

// screenResolution reads `wm size`, preferring an Override size (set
// by a prior wm size call) over the Physical size, per the teacher's
// getScreenResolution.
func (b *DeviceBus) screenResolution(ctx context.Context, serial string) (string, error) {
	out, err := b.ShellCollect(ctx, serial, "wm", "size")
	if err != nil {
		return "", err
	}
	var physical, override string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Physical size:"); ok {
			physical = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "Override size:"); ok {
			override = strings.TrimSpace(v)
		}
	}
	if override != "" {
		return override, nil
	}
	if physical != "" {
		return physical, nil
	}
	return "unknown", nil
}

// batteryLevelRaw parses `dumpsys battery` for the "level:" field,
// range-checked to 0..100 per SPEC_FULL.md §4.6 getBatteryLevel.
func (b *DeviceBus) batteryLevelRaw(ctx context.Context, serial string) (int, error) {
	out, err := b.ShellCollect(ctx, serial, "dumpsys", "battery")
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "level:"); ok {
			level, perr := strconv.Atoi(strings.TrimSpace(v))
			if perr != nil {
				return 0, perr
			}
			if level < 0 || level > 100 {
				return 0, fmt.Errorf("battery level out of range: %d", level)
			}
			return level, nil
		}
	}
	return 0, fmt.Errorf("battery level not found")
}

// GetBatteryLevel exposes the battery reader to CommandHub.
func (b *DeviceBus) GetBatteryLevel(ctx context.Context, serial string) (int, error) {
	return b.batteryLevelRaw(ctx, serial)
}

// GetAndroidMajorVersion reads ro.build.version.release and returns
// its major version component (e.g. "11" -> 11, "7.1.2" -> 7).
func (b *DeviceBus) GetAndroidMajorVersion(ctx context.Context, serial string) (int, error) {
	v, err := b.ShellCollect(ctx, serial, "getprop", "ro.build.version.release")
	if err != nil {
		return 0, err
	}
	major := strings.SplitN(v, ".", 2)[0]
	n, err := strconv.Atoi(strings.TrimSpace(major))
	if err != nil {
		return 0, fmt.Errorf("parse android version %q: %w", v, err)
	}
	return n, nil
}

// Tap/Swipe/Key/Text/LaunchApp are the CommandHub action surface used
// outside the control-socket path (e.g. navAction, launchApp) — these
// still go through `adb shell input` rather than the scrcpy control
// socket, matching the teacher's action dispatcher.

func (b *DeviceBus) SendTap(ctx context.Context, serial string, x, y int) error {
	_, err := b.ShellCollect(ctx, serial, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

func (b *DeviceBus) SendKeyEvent(ctx context.Context, serial string, keycode int) error {
	_, err := b.ShellCollect(ctx, serial, "input", "keyevent", strconv.Itoa(keycode))
	return err
}

func (b *DeviceBus) LaunchApp(ctx context.Context, serial, packageName string) error {
	_, err := b.ShellCollect(ctx, serial, "monkey", "-p", packageName, "-c", "android.intent.category.LAUNCHER", "1")
	return err
}

// SetMediaVolume issues `media volume --stream 3 --set` (Android <= 10)
// or the cmd media_session volume form (Android >= 11), per
// SPEC_FULL.md §4.6 volume.
func (b *DeviceBus) SetMediaVolume(ctx context.Context, serial string, androidMajor, value int) error {
	if androidMajor >= 11 {
		_, err := b.ShellCollect(ctx, serial, "cmd", "media_session", "volume", "--set", strconv.Itoa(value))
		return err
	}
	_, err := b.ShellCollect(ctx, serial, "media", "volume", "--stream", "3", "--set", strconv.Itoa(value))
	return err
}

// GetMaxMediaVolume reads the device's maximum media-stream volume
// from `media volume --stream 3 --get` output's max=N, or
// falls back to 15 (the common Android default) if unparsable.
func (b *DeviceBus) GetMaxMediaVolume(ctx context.Context, serial string) (int, error) {
	out, err := b.ShellCollect(ctx, serial, "media", "volume", "--stream", "3", "--get")
	if err != nil {
		return 15, err
	}
	for _, field := range strings.Fields(out) {
		if v, ok := strings.CutPrefix(field, "max="); ok {
			if n, perr := strconv.Atoi(v); perr == nil {
				return n, nil
			}
		}
	}
	return 15, nil
}

// WifiEnable toggles the Wi-Fi radio via `svc wifi`.
func (b *DeviceBus) WifiEnable(ctx context.Context, serial string, enable bool) error {
	arg := "disable"
	if enable {
		arg = "enable"
	}
	_, err := b.ShellCollect(ctx, serial, "svc", "wifi", arg)
	return err
}

// WifiStatus reports whether `dumpsys wifi` shows the Wi-Fi state as
// enabled, and the current SSID if associated.
func (b *DeviceBus) WifiStatus(ctx context.Context, serial string) (enabled bool, ssid string, err error) {
	out, err := b.ShellCollect(ctx, serial, "dumpsys", "wifi")
	if err != nil {
		return false, "", err
	}
	enabled = strings.Contains(out, "Wi-Fi is enabled") || strings.Contains(out, "mWifiState=ENABLED") || strings.Contains(out, "state: ENABLED")
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.Index(line, "SSID:"); idx >= 0 {
			rest := strings.TrimSpace(line[idx+len("SSID:"):])
			if f := strings.Fields(rest); len(f) > 0 && f[0] != "<unknown" {
				ssid = f[0]
				break
			}
		}
	}
	return enabled, ssid, nil
}

// DisplayList spawns the streaming server in list-mode and returns its
// stdout, for CommandHub's getDisplayList to parse, per
// SPEC_FULL.md §4.6.
func (b *DeviceBus) DisplayList(ctx context.Context, serial string, serverShellArgs []string) (string, error) {
	return b.ShellCollect(ctx, serial, serverShellArgs...)
}

// rotationCheckErr marks a rotation-setting read/write failure as a
// command-scoped (not session-scoped) error.
func rotationCheckErr(err error) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.ErrCommandShellError, err.Error())
}

// GetSetting reads a system setting value with `settings get`.
func (b *DeviceBus) GetSetting(ctx context.Context, serial, namespace, key string) (string, error) {
	v, err := b.ShellCollect(ctx, serial, "settings", "get", namespace, key)
	return v, rotationCheckErr(err)
}

// PutSetting writes a system setting value with `settings put`.
func (b *DeviceBus) PutSetting(ctx context.Context, serial, namespace, key, value string) error {
	_, err := b.ShellCollect(ctx, serial, "settings", "put", namespace, key, value)
	return rotationCheckErr(err)
}

// WmSize sets or resets the display override size. An empty spec
// resets to the physical size ("wm size reset").
func (b *DeviceBus) WmSize(ctx context.Context, serial, spec string) error {
	if spec == "" {
		_, err := b.ShellCollect(ctx, serial, "wm", "size", "reset")
		return err
	}
	_, err := b.ShellCollect(ctx, serial, "wm", "size", spec)
	return err
}

// WmDensity sets or resets the display density.
func (b *DeviceBus) WmDensity(ctx context.Context, serial string, dpi int) error {
	if dpi <= 0 {
		_, err := b.ShellCollect(ctx, serial, "wm", "density", "reset")
		return err
	}
	_, err := b.ShellCollect(ctx, serial, "wm", "density", strconv.Itoa(dpi))
	return err
}
