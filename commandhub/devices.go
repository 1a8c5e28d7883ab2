package commandhub

import (
	"context"
	"sync"
	"time"

	"androidcontrol/adb"
	"androidcontrol/models"
)

// deviceRegistry caches the last ScanDevices result, grounded on the
// teacher's DeviceManager (a mutex-guarded map refreshed on demand).
type deviceRegistry struct {
	mu      sync.RWMutex
	bus     *adb.DeviceBus
	devices map[string]*models.Device
}

func newDeviceRegistry(bus *adb.DeviceBus) *deviceRegistry {
	return &deviceRegistry{bus: bus, devices: make(map[string]*models.Device)}
}

// scan re-enumerates devices via DeviceBus and replaces the cache.
func (r *deviceRegistry) scan(ctx context.Context) ([]models.Device, error) {
	list, err := r.bus.List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = make(map[string]*models.Device, len(list))
	out := make([]models.Device, 0, len(list))
	for i := range list {
		list[i].LastSeen = now
		d := list[i]
		r.devices[d.ID] = &d
		out = append(out, d)
	}
	return out, nil
}

func (r *deviceRegistry) get(id string) (*models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	return d, ok
}

func (r *deviceRegistry) invalidateCache(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.devices[id]; ok {
		d.InvalidateCache()
	}
}

// cachedAndroidMajor and setCachedAndroidMajor read/write
// CachedAndroidMajorVersion under the registry lock: scan() can
// replace the backing *models.Device concurrently with a handler
// populating its cache, so callers must never touch the field through
// the pointer returned by get directly.
func (r *deviceRegistry) cachedAndroidMajor(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.devices[id]; ok {
		return d.CachedAndroidMajorVersion
	}
	return 0
}

func (r *deviceRegistry) setCachedAndroidMajor(id string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.devices[id]; ok {
		d.CachedAndroidMajorVersion = v
	}
}

// cachedMaxVolume and setCachedMaxVolume are cachedAndroidMajor's
// counterpart for CachedMaxMediaVolume.
func (r *deviceRegistry) cachedMaxVolume(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.devices[id]; ok {
		return d.CachedMaxMediaVolume
	}
	return 0
}

func (r *deviceRegistry) setCachedMaxVolume(id string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.devices[id]; ok {
		d.CachedMaxMediaVolume = v
	}
}
