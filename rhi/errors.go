package rhi

import "errors"

var (
	// ErrBackendNotFound means no backend factory is registered for the
	// requested raw API.
	ErrBackendNotFound = errors.New("rhi: backend not found")

	// ErrDeviceLost means the native device was removed or reset.
	// Callers treat this as fatal.
	ErrDeviceLost = errors.New("rhi: device lost")

	// ErrNotSupported means the backend lacks the requested capability,
	// e.g. raytracing on a backend that reports tier NotSupported.
	ErrNotSupported = errors.New("rhi: not supported")

	// ErrOutOfPoolMemory means a pool suballocation did not fit.
	ErrOutOfPoolMemory = errors.New("rhi: out of pool memory")

	// ErrMissingFeature means device creation required a feature tier the
	// adapter cannot provide.
	ErrMissingFeature = errors.New("rhi: required feature unavailable")
)
