package session

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"androidcontrol/adb"
	"androidcontrol/errs"
	"androidcontrol/models"
	"androidcontrol/store"

	"go.uber.org/zap"
)

// displayPrep is the result of applying a display mode's precondition
// commands: an optional display-id override for ServerOptions and a
// cleanup func to invoke from cleanupSession.
type displayPrep struct {
	displayID  int
	newDisplay string
	cleanup    func(ctx context.Context) error
}

// noopPrep applies no precondition and needs no cleanup (DisplayDefault).
func noopPrep() displayPrep {
	return displayPrep{cleanup: func(context.Context) error { return nil }}
}

// magicDPI implements the native_taskbar formula from spec.md §9:
// round(H / 600 * 160), clamped so the result never exceeds
// currentDPI (applyNativeTaskbar passes the DPI requested for the
// session, or 160 when none is given). The rounding-then-clamping order is
// preserved as-is per the spec's Open Question — do not tighten it.
func magicDPI(height, currentDPI int) int {
	dpi := int(math.Round(float64(height) / 600.0 * 160.0))
	if currentDPI > 0 && dpi > currentDPI {
		dpi = currentDPI
	}
	return dpi
}

// applyDisplayMode runs the precondition commands for mode and returns
// a displayPrep the caller folds into ServerOptions and keeps around
// for cleanupSession.
func applyDisplayMode(ctx context.Context, bus *adb.DeviceBus, rot *store.RotationStore, log *zap.Logger, serial string, mode models.DisplayMode, resolution, dpi string) (displayPrep, error) {
	switch mode {
	case models.DisplayDefault:
		return noopPrep(), nil

	case models.DisplayOverlay:
		before, err := listDisplays(ctx, bus, serial)
		if err != nil && log != nil {
			log.Warn("getDisplayList before overlay failed", zap.String("device", serial), zap.Error(err))
		}

		spec := fmt.Sprintf("%s/%s", resolution, dpi)
		if err := bus.PutSetting(ctx, serial, "global", "overlay_display_devices", spec); err != nil {
			return displayPrep{}, err
		}

		after, err := listDisplays(ctx, bus, serial)
		if err != nil && log != nil {
			log.Warn("getDisplayList after overlay failed", zap.String("device", serial), zap.Error(err))
		}
		newID := diffNewDisplayID(before, after)
		if newID == 0 && log != nil {
			log.Warn("overlay display id not found, falling back to default display", zap.String("device", serial))
		}

		return displayPrep{
			displayID: newID,
			cleanup: func(ctx context.Context) error {
				return bus.PutSetting(ctx, serial, "global", "overlay_display_devices", "")
			},
		}, nil

	case models.DisplayVirtual:
		nd := fmt.Sprintf("%s/%s", resolution, dpi)
		return displayPrep{newDisplay: nd, cleanup: func(context.Context) error { return nil }}, nil

	case models.DisplayDex:
		return displayPrep{displayID: 2, cleanup: func(context.Context) error { return nil }}, nil

	case models.DisplayNativeTaskbar:
		return applyNativeTaskbar(ctx, bus, rot, log, serial, resolution, dpi)

	default:
		return displayPrep{}, errs.Wrap(errs.ErrServerSpawnFailed, "unknown display mode "+string(mode))
	}
}

// applyNativeTaskbar flips W/H, derives the magic DPI, applies wm
// size/density, and snapshots the rotation settings for later restore
// in the rotation cache, per spec.md §6/§9.
func applyNativeTaskbar(ctx context.Context, bus *adb.DeviceBus, rot *store.RotationStore, log *zap.Logger, serial, resolution, dpi string) (displayPrep, error) {
	w, h, err := parseWxH(resolution)
	if err != nil {
		return displayPrep{}, err
	}
	flippedSpec := fmt.Sprintf("%dx%d", h, w)

	currentDPI := 160
	if dpi != "" {
		if v, perr := strconv.Atoi(dpi); perr == nil {
			currentDPI = v
		}
	}
	targetDPI := magicDPI(h, currentDPI)

	userRotation, _ := bus.GetSetting(ctx, serial, "system", "user_rotation")
	accelRotation, _ := bus.GetSetting(ctx, serial, "system", "accelerometer_rotation")
	if rot != nil {
		if err := rot.Save(serial, store.RotationState{
			UserRotation:          userRotation,
			AccelerometerRotation: accelRotation,
		}); err != nil && log != nil {
			log.Warn("rotation state save failed", zap.String("device", serial), zap.Error(err))
		}
	}

	if err := bus.WmSize(ctx, serial, flippedSpec); err != nil {
		return displayPrep{}, err
	}
	if err := bus.WmDensity(ctx, serial, targetDPI); err != nil {
		return displayPrep{}, err
	}

	return displayPrep{
		cleanup: func(ctx context.Context) error {
			return restoreRotation(ctx, bus, rot, log, serial)
		},
	}, nil
}

// restoreRotation resets wm size/density and replays the cached
// rotation settings, per SPEC_FULL.md §4.6 cleanupAdb.
func restoreRotation(ctx context.Context, bus *adb.DeviceBus, rot *store.RotationStore, log *zap.Logger, serial string) error {
	if err := bus.WmSize(ctx, serial, ""); err != nil && log != nil {
		log.Warn("wm size reset failed", zap.Error(err))
	}
	if err := bus.WmDensity(ctx, serial, 0); err != nil && log != nil {
		log.Warn("wm density reset failed", zap.Error(err))
	}
	if rot == nil {
		return nil
	}
	state, ok, err := rot.Load(serial)
	if err != nil || !ok {
		return err
	}
	if err := bus.PutSetting(ctx, serial, "system", "user_rotation", state.UserRotation); err != nil {
		return err
	}
	if err := bus.PutSetting(ctx, serial, "system", "accelerometer_rotation", state.AccelerometerRotation); err != nil {
		return err
	}
	return rot.Clear(serial)
}

// listDisplays runs the streaming server's list_displays=true command
// and parses its output, the same ADB path CommandHub's getDisplayList
// uses, per spec.md §8 scenario 3.
func listDisplays(ctx context.Context, bus *adb.DeviceBus, serial string) ([]adb.Display, error) {
	scid := models.NewScid()
	args := []string{
		"CLASSPATH=" + RemoteServerPath,
		"app_process", "/", "com.androidcontrol.Server",
		"list_displays=true", fmt.Sprintf("scid=%s", scid),
	}
	out, err := bus.DisplayList(ctx, serial, args)
	if err != nil {
		return nil, err
	}
	return adb.ParseDisplayList(out), nil
}

// diffNewDisplayID returns the id present in after but not in before —
// the overlay display the wm just created — or 0 if none is found.
func diffNewDisplayID(before, after []adb.Display) int {
	seen := make(map[int]bool, len(before))
	for _, d := range before {
		seen[d.ID] = true
	}
	for _, d := range after {
		if !seen[d.ID] {
			return d.ID
		}
	}
	return 0
}

func parseWxH(spec string) (w, h int, err error) {
	parts := strings.SplitN(spec, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q", spec)
	}
	w, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	h, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
