package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoAdapter is returned when no usable GPU adapter is found.
var ErrNoAdapter = errors.New("render: no GPU adapters found")

// Device bundles a hal device and queue with the limits it was opened
// with.
type Device struct {
	HAL      hal.Device
	Queue    hal.Queue
	instance hal.Instance
	limits   gputypes.Limits
}

// OpenDevice creates a standalone Vulkan device: backend, instance,
// adapter enumeration (preferring discrete GPUs, then integrated),
// open with default limits.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("render: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("render: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("render: open device: %w", err)
	}

	slogger().Info("render: GPU initialized", "adapter", selected.Info.Name)

	return &Device{
		HAL:      openDev.Device,
		Queue:    openDev.Queue,
		instance: instance,
		limits:   limits,
	}, nil
}

// NewDeviceFrom wraps an externally owned hal device and queue, e.g.
// one shared with a windowing surface. Close will not destroy it.
func NewDeviceFrom(device hal.Device, queue hal.Queue, limits gputypes.Limits) *Device {
	return &Device{HAL: device, Queue: queue, limits: limits}
}

// MaxTextureDim returns the largest 2D texture extent the device was
// opened with; images beyond it are split into tiles.
func (d *Device) MaxTextureDim() uint32 {
	return d.limits.MaxTextureDimension2D
}

// Close destroys the device and instance. Wrapped external devices are
// left alone.
func (d *Device) Close() {
	if d.instance == nil {
		return
	}
	if d.HAL != nil {
		d.HAL.Destroy()
	}
	d.instance.Destroy()
	d.instance = nil
}
