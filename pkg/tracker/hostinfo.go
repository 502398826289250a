package tracker

import (
	"os"
	"runtime"
	"time"
)

// HostInfo is an immutable snapshot of the host environment, computed once
// per session and attached to every delivery payload.
type HostInfo struct {
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	Hostname    string `json:"hostname"`
	NumCPU      int    `json:"numCpu"`
	GoVersion   string `json:"goVersion"`
	Language    string `json:"language,omitempty"`
	Timezone    string `json:"timezone"`
	Containered bool   `json:"containered"`
}

// CollectHostInfo gathers the host snapshot. All probes are best-effort;
// a failed probe leaves its field zero-valued rather than erroring.
func CollectHostInfo() HostInfo {
	hostname, _ := os.Hostname()
	zone, _ := time.Now().Zone()

	return HostInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Hostname:    hostname,
		NumCPU:      runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		Language:    os.Getenv("LANG"),
		Timezone:    zone,
		Containered: inContainer(),
	}
}

func inContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}
	return false
}
