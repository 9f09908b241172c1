package nn

import (
	"fmt"
	"math/rand"
)

// Device identifies where a run's tensors live. This build has no
// accelerator backend, so every requested device resolves to the CPU.
type Device struct {
	// Index is the requested accelerator index, -1 for the CPU.
	Index int
}

// CPU returns the CPU device.
func CPU() Device { return Device{Index: -1} }

// ResolveDevice maps a requested accelerator index onto an available
// device. The second return value reports whether the request fell back
// to the CPU because no accelerator exists.
func ResolveDevice(index int) (Device, bool) {
	if index < 0 {
		return CPU(), false
	}
	return CPU(), true
}

func (d Device) String() string {
	if d.Index < 0 {
		return "cpu"
	}
	return fmt.Sprintf("cuda:%d", d.Index)
}

// Context carries the compute state owned by one run: the device all of
// the run's tensors live on and the random source used for weight
// initialization, shuffling, negative sampling and dropout.
type Context struct {
	Device Device
	RNG    *rand.Rand
}

// NewContext builds a compute context around a device and an explicit
// random source.
func NewContext(device Device, rng *rand.Rand) *Context {
	return &Context{Device: device, RNG: rng}
}
