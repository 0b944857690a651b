// Package sysinfo probes host hardware for model-selection decisions.
package sysinfo

import (
	"sync"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// HostInfo describes the detected hardware.
type HostInfo struct {
	MemTotalGB int
	MemValid   bool
	Tier       core.RAMTier
	GPUs       []GPUInfo
}

// GPUInfo describes one detected graphics device.
type GPUInfo struct {
	Vendor  string
	Product string
}

// HasGPU reports whether any graphics device was detected.
func (h HostInfo) HasGPU() bool {
	return len(h.GPUs) > 0
}

var (
	detectOnce sync.Once
	detected   HostInfo
)

// Detect probes physical memory and GPUs once and memoizes the result.
// When memory detection fails the tier conservatively degrades to
// Minimal.
func Detect() HostInfo {
	detectOnce.Do(func() {
		detected = probe()
	})
	return detected
}

func probe() HostInfo {
	info := HostInfo{Tier: core.TierMinimal}

	if vm, err := mem.VirtualMemory(); err == nil && vm.Total > 0 {
		info.MemTotalGB = int(vm.Total >> 30)
		info.MemValid = true
		info.Tier = core.ClassifyRAMTier(info.MemTotalGB)
	}

	if gpu, err := ghw.GPU(); err == nil {
		for _, card := range gpu.GraphicsCards {
			g := GPUInfo{}
			if card.DeviceInfo != nil {
				if card.DeviceInfo.Vendor != nil {
					g.Vendor = card.DeviceInfo.Vendor.Name
				}
				if card.DeviceInfo.Product != nil {
					g.Product = card.DeviceInfo.Product.Name
				}
			}
			info.GPUs = append(info.GPUs, g)
		}
	}
	return info
}

// ForTesting builds a HostInfo for a given memory size, bypassing
// detection.
func ForTesting(gb int) HostInfo {
	return HostInfo{
		MemTotalGB: gb,
		MemValid:   true,
		Tier:       core.ClassifyRAMTier(gb),
	}
}
