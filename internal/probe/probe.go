package probe

import (
	"os/exec"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/resolver"
)

// Probe inspects the environment once per run and returns the ordered
// export strategy chain. Detection is read-only: directory listing and
// PATH lookups, no network and no tool invocations. The text fallback is
// always present and always last, so the chain is never empty.
func Probe(cfg *config.Config) []resolver.Strategy {
	var strategies []resolver.Strategy

	if cfg.UploadedDir != "" {
		uploaded := resolver.NewUploadedImages(cfg.UploadedDir)
		if uploaded.HasImages() {
			strategies = append(strategies, uploaded)
		}
	}

	if _, err := exec.LookPath("soffice"); err == nil {
		strategies = append(strategies, resolver.NewNativeExport(cfg.InputPath, cfg.DPI, cfg.ExportTimeout))
	}

	strategies = append(strategies, resolver.NewTextFallback(cfg.Width, cfg.Height))
	return strategies
}

// Environment is a read-only snapshot of the host used for logging and
// worker defaults.
type Environment struct {
	HostOS       string
	Platform     string
	CPUs         int
	AvailableMiB uint64
}

func ReadEnvironment() Environment {
	env := Environment{CPUs: 1}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		env.CPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		env.AvailableMiB = vm.Available / (1 << 20)
	}
	if info, err := host.Info(); err == nil {
		env.HostOS = info.OS
		env.Platform = info.Platform
	}

	return env
}

// SuggestWorkers caps the synthesis worker pool: the calls are
// network-bound, so more workers than half the cores buys nothing, and
// the external rate limit makes 4 the ceiling.
func (e Environment) SuggestWorkers() int {
	w := e.CPUs / 2
	if w < 1 {
		w = 1
	}
	if w > 4 {
		w = 4
	}
	return w
}
