package adb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"androidcontrol/models"
)

func TestParseDeviceList(t *testing.T) {
	out := "List of devices attached\n" +
		"emulator-5554\tdevice product:sdk_gphone model:Pixel_6 device:emu64a\n" +
		"192.168.1.5:5555\tunauthorized\n" +
		"\n"

	devices := parseDeviceList(out)
	require.Len(t, devices, 2)
	require.Equal(t, "emulator-5554", devices[0].ADBDeviceID)
	require.Equal(t, models.DeviceOnline, devices[0].State)
	require.Equal(t, "Pixel 6", devices[0].Name)
	require.Equal(t, models.DeviceUnauthorized, devices[1].State)
}

func TestDeduplicateDevicesPrefersWifi(t *testing.T) {
	devices := []models.Device{
		{ADBDeviceID: "R58M1234ABC", HardwareSerial: "R58M1234ABC"},
		{ADBDeviceID: "192.168.1.5:5555", HardwareSerial: "R58M1234ABC"},
	}

	result := deduplicateDevices(devices)
	require.Len(t, result, 1)
	require.Equal(t, "192.168.1.5:5555", result[0].ADBDeviceID)
}

func TestDeduplicateDevicesKeepsDistinctDevices(t *testing.T) {
	devices := []models.Device{
		{ADBDeviceID: "serial-a", HardwareSerial: "serial-a"},
		{ADBDeviceID: "serial-b", HardwareSerial: "serial-b"},
	}

	result := deduplicateDevices(devices)
	require.Len(t, result, 2)
}

func TestIsWiFiConnection(t *testing.T) {
	require.True(t, isWiFiConnection("192.168.1.5:5555"))
	require.False(t, isWiFiConnection("R58M1234ABC"))
}
