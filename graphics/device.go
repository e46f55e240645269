// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access for an output.
//
// Outputs driven by a GPU share their device with the renderer created for
// them: the renderer RECEIVES the device from the display backend, it does
// not open one itself.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so that display
// backends from the gpucontext ecosystem plug in unchanged.
type DeviceHandle = gpucontext.DeviceProvider

// DeviceBacked is implemented by display buffers that expose the GPU device
// their output is attached to.
type DeviceBacked interface {
	DeviceHandle() DeviceHandle
}

// DeviceOf returns the device handle of db, or NullDeviceHandle if db does
// not expose one.
func DeviceOf(db DisplayBuffer) DeviceHandle {
	if b, ok := db.(DeviceBacked); ok {
		if h := b.DeviceHandle(); h != nil {
			return h
		}
	}
	return NullDeviceHandle{}
}

// NullDeviceHandle is a DeviceHandle for outputs without a GPU.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// FormatsCompatible reports whether a buffer in format src can be shown on
// an output expecting dst. Undefined on either side matches anything.
func FormatsCompatible(src, dst gputypes.TextureFormat) bool {
	if src == gputypes.TextureFormatUndefined || dst == gputypes.TextureFormatUndefined {
		return true
	}
	return src == dst
}
