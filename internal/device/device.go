// Package device detects the host's device profile once at startup. The
// profile is immutable for the process lifetime and handed to the agent
// engine and backend adapters to size local-model requests (context window,
// thread count, GPU-layer count, batch size) without either package probing
// the environment itself.
package device

import (
	"os"
	"runtime"
)

// Profile is one of the two canonical device profiles this orchestrator
// recognizes.
type Profile string

const (
	ProfileDesktop Profile = "desktop"
	ProfileMobile  Profile = "mobile"
)

// Info is the immutable result of a Detect call, matching spec.md §4.13:
// model path, context window, thread count, GPU-layer count, batch size,
// whether image generation is enabled, and a memory budget.
type Info struct {
	Profile         Profile
	ModelPath       string
	ContextWindow   int
	Threads         int
	GPULayers       int
	BatchSize       int
	ImageGenEnabled bool
	MemoryBudgetMB  int
}

// desktop is the high-resource canonical profile: a workstation or server
// with a discrete GPU, used whenever no mobile marker is found.
var desktop = Info{
	Profile:         ProfileDesktop,
	ModelPath:       "models/desktop-q4.gguf",
	ContextWindow:   8192,
	GPULayers:       35,
	BatchSize:       512,
	ImageGenEnabled: true,
	MemoryBudgetMB:  16384,
}

// mobile is the low-resource canonical profile: a Termux/Android host or any
// environment with NEXUS_DEVICE_PROFILE=mobile, running CPU-only with a
// small context window and no image generation.
var mobile = Info{
	Profile:         ProfileMobile,
	ModelPath:       "models/mobile-q4.gguf",
	ContextWindow:   2048,
	GPULayers:       0,
	BatchSize:       64,
	ImageGenEnabled: false,
	MemoryBudgetMB:  2048,
}

// Detect probes the environment for mobile markers (Android/Termux
// filesystem layout, NEXUS_DEVICE_PROFILE override) and falls back to
// desktop otherwise. Threads always reflects the actual runtime.NumCPU of
// the detecting host, capped for the mobile profile, even though the rest
// of the profile is canonical.
func Detect() Info {
	info := desktop
	switch {
	case os.Getenv("NEXUS_DEVICE_PROFILE") == string(ProfileMobile):
		info = mobile
	case os.Getenv("NEXUS_DEVICE_PROFILE") == string(ProfileDesktop):
		info = desktop
	case hasPath("/data/data/com.termux"), hasPath("/system/build.prop"):
		info = mobile
	}
	info.Threads = runtime.NumCPU()
	if info.Profile == ProfileMobile && info.Threads > 4 {
		info.Threads = 4
	}
	return info
}

func hasPath(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
