package output

import (
	"github.com/user/kdfbench/internal/benchmark"
	"github.com/user/kdfbench/pkg/sysinfo"
)

// Data is everything the end-of-run summary needs.
type Data struct {
	SystemInfo *sysinfo.SystemInfo
	Results    []benchmark.Result
	Config     benchmark.Config
}
