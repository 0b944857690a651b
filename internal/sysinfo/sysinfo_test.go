package sysinfo

import (
	"testing"

	"github.com/cadenroberts/ollamabot/internal/core"
)

func TestDetect_Memoizes(t *testing.T) {
	first := Detect()
	second := Detect()
	if first.Tier != second.Tier || first.MemTotalGB != second.MemTotalGB {
		t.Fatalf("Detect must memoize: %+v vs %+v", first, second)
	}
}

func TestForTesting_TierMapping(t *testing.T) {
	if got := ForTesting(8).Tier; got != core.TierMinimal {
		t.Fatalf("8 GB tier = %s", got)
	}
	if got := ForTesting(48).Tier; got != core.TierPerformance {
		t.Fatalf("48 GB tier = %s", got)
	}
	if !ForTesting(8).MemValid {
		t.Fatalf("test host info must be valid")
	}
}

func TestHostInfo_HasGPU(t *testing.T) {
	h := HostInfo{}
	if h.HasGPU() {
		t.Fatalf("no GPUs detected must report false")
	}
	h.GPUs = append(h.GPUs, GPUInfo{Vendor: "x"})
	if !h.HasGPU() {
		t.Fatalf("expected HasGPU true")
	}
}
