package rhi

import (
	"fmt"
	"sync"
)

// BackendFactory creates an uninitialized device for one raw API.
// Backends register themselves from init().
type BackendFactory func() Device

var (
	factoriesMu sync.RWMutex
	factories   = make(map[RawAPI]BackendFactory)
)

// RegisterBackendFactory registers a factory for a raw API. A later
// registration for the same API replaces the earlier one.
func RegisterBackendFactory(api RawAPI, factory BackendFactory) {
	factoriesMu.Lock()
	factories[api] = factory
	factoriesMu.Unlock()
}

// CreateRenderDevice creates and initializes the device for params.RawAPI
// and installs it as the process-wide device.
func CreateRenderDevice(params DeviceCreateParams) (Device, error) {
	factoriesMu.RLock()
	factory, ok := factories[params.RawAPI]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, params.RawAPI)
	}

	device := factory()
	if err := device.Initialize(params); err != nil {
		return nil, fmt.Errorf("initialize %s device: %w", params.RawAPI, err)
	}
	SetDevice(device)
	return device, nil
}
