package commandhub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"androidcontrol/models"
)

func TestDeviceRegistryGetMissingReturnsFalse(t *testing.T) {
	r := newDeviceRegistry(nil)
	_, ok := r.get("device_1")
	require.False(t, ok)
}

func TestDeviceRegistryGetReturnsCachedEntry(t *testing.T) {
	r := newDeviceRegistry(nil)
	r.devices["device_1"] = &models.Device{ID: "device_1", CachedMaxMediaVolume: 15}

	d, ok := r.get("device_1")
	require.True(t, ok)
	require.Equal(t, 15, d.CachedMaxMediaVolume)
}

func TestDeviceRegistryInvalidateCacheClearsLazyFields(t *testing.T) {
	r := newDeviceRegistry(nil)
	r.devices["device_1"] = &models.Device{
		ID:                        "device_1",
		CachedAndroidMajorVersion: 11,
		CachedMaxMediaVolume:      15,
	}

	r.invalidateCache("device_1")

	d, ok := r.get("device_1")
	require.True(t, ok)
	require.Equal(t, 0, d.CachedAndroidMajorVersion)
	require.Equal(t, 0, d.CachedMaxMediaVolume)
}

func TestDeviceRegistryInvalidateCacheOfUnknownIDIsNoop(t *testing.T) {
	r := newDeviceRegistry(nil)
	require.NotPanics(t, func() { r.invalidateCache("never-seen") })
}

func TestDeviceRegistryCachedAccessorsRoundTripThroughTheLock(t *testing.T) {
	r := newDeviceRegistry(nil)
	r.devices["device_1"] = &models.Device{ID: "device_1"}

	require.Equal(t, 0, r.cachedAndroidMajor("device_1"))
	require.Equal(t, 0, r.cachedMaxVolume("device_1"))

	r.setCachedAndroidMajor("device_1", 11)
	r.setCachedMaxVolume("device_1", 15)

	require.Equal(t, 11, r.cachedAndroidMajor("device_1"))
	require.Equal(t, 15, r.cachedMaxVolume("device_1"))
}

func TestDeviceRegistryCachedAccessorsOnUnknownIDReturnZeroAndDoNotPanic(t *testing.T) {
	r := newDeviceRegistry(nil)
	require.Equal(t, 0, r.cachedAndroidMajor("never-seen"))
	require.Equal(t, 0, r.cachedMaxVolume("never-seen"))
	require.NotPanics(t, func() { r.setCachedAndroidMajor("never-seen", 11) })
}
