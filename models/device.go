package models

// DeviceState is the ADB-reported reachability of a device, per
// SPEC_FULL.md §3.
type DeviceState string

const (
	DeviceOnline       DeviceState = "online"
	DeviceUnauthorized DeviceState = "unauthorized"
	DeviceOffline      DeviceState = "offline"
)

// Device is a discovered Android device. Cached fields are populated
// lazily by CommandHub operations (volume, getVolume) and invalidated
// by CommandHub when a start for the device fails. A session that
// ends abnormally after it is running does not invalidate them.
type Device struct {
	ID                       string      `json:"id"`
	ADBDeviceID              string      `json:"adb_device_id"`
	Name                     string      `json:"name"`
	State                    DeviceState `json:"state"`
	HardwareSerial           string      `json:"hardware_serial,omitempty"`
	Resolution               string      `json:"resolution,omitempty"`
	Battery                  int         `json:"battery,omitempty"`
	AndroidVersion           string      `json:"android_version,omitempty"`
	LastSeen                 int64       `json:"last_seen"`
	CachedAndroidMajorVersion int        `json:"-"`
	CachedMaxMediaVolume     int         `json:"-"`
}

// InvalidateCache clears lazily-populated fields. Called by
// CommandHub's device registry when CreateSession fails for this
// device.
func (d *Device) InvalidateCache() {
	d.CachedAndroidMajorVersion = 0
	d.CachedMaxMediaVolume = 0
}
