package sysinfo

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type SystemInfo struct {
	OS              string `json:"os"`
	Architecture    string `json:"architecture"`
	CPUModel        string `json:"cpu_model"`
	CPUCores        int    `json:"cpu_cores"`
	HardwareThreads int    `json:"hardware_threads"`
	GOMAXPROCS      int    `json:"gomaxprocs"`
	TotalMemory     uint64 `json:"total_memory"`
	AvailableMemory uint64 `json:"available_memory"`
	GoVersion       string `json:"go_version"`
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`
}

// Collect gathers what is known about the host. Fields gopsutil cannot read
// on this platform are left zero.
func Collect() (*SystemInfo, error) {
	info := &SystemInfo{
		OS:              runtime.GOOS,
		Architecture:    runtime.GOARCH,
		GoVersion:       runtime.Version(),
		HardwareThreads: HardwareThreads(),
		GOMAXPROCS:      runtime.GOMAXPROCS(0),
	}

	cpuInfo, err := cpu.Info()
	if err == nil && len(cpuInfo) > 0 {
		info.CPUModel = strings.TrimSpace(cpuInfo[0].ModelName)
	}

	// Physical cores
	cores, err := cpu.Counts(false)
	if err == nil && cores > 0 {
		info.CPUCores = cores
	} else {
		info.CPUCores = info.HardwareThreads
	}

	memInfo, err := mem.VirtualMemory()
	if err == nil {
		info.TotalMemory = memInfo.Total
		info.AvailableMemory = memInfo.Available
	}

	hostInfo, err := host.Info()
	if err == nil {
		info.Hostname = hostInfo.Hostname
		info.Platform = hostInfo.Platform
	}

	return info, nil
}

// HardwareThreads returns the number of logical CPUs, the default degree of
// parallelism for a benchmark.
func HardwareThreads() int {
	threads, err := cpu.Counts(true)
	if err != nil || threads < 1 {
		return runtime.NumCPU()
	}
	return threads
}
