package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// bytesPerWorker is a rough working set for one storyboard or slide worker
// holding a full-resolution RGBA frame plus a decoded source image.
const bytesPerWorker = 256 << 20

// WorkerBudget picks a worker count from the physical core count, capped so the
// workers fit into currently available memory. It never returns less than 1.
func WorkerBudget() int {
	workers, err := cpu.Counts(false)
	if err != nil || workers <= 0 {
		workers = runtime.NumCPU()
	}

	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		byMemory := int(vm.Available / bytesPerWorker)
		if byMemory < workers {
			workers = byMemory
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}
