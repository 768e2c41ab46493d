package output

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WriteSummary renders all results of a session as one table.
func WriteSummary(w io.Writer, data Data) error {
	if len(data.Results) == 0 {
		return fmt.Errorf("no results to summarize")
	}

	fmt.Fprintln(w, "\nSummary")
	fmt.Fprintln(w, "=======")
	if si := data.SystemInfo; si != nil {
		fmt.Fprintf(w, "Host: %s/%s, %s, %d cores / %d threads, %s memory\n",
			si.OS, si.Architecture, si.CPUModel, si.CPUCores, si.HardwareThreads,
			formatBytes(si.TotalMemory))
	}
	fmt.Fprintf(w, "Run: %s per benchmark, %s shutdown grace\n\n",
		formatDuration(data.Config.RunDuration), formatDuration(data.Config.ShutdownGrace))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Benchmark",
		"Threads",
		"Completed",
		"Ops/Sec",
		"Per Op",
		"Failed",
		"Abandoned",
	})

	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, result := range data.Results {
		table.Append([]string{
			result.Label,
			fmt.Sprintf("%d", result.Parallelism),
			fmt.Sprintf("%d", result.Completed),
			fmt.Sprintf("%.2f", result.Throughput),
			formatDuration(perOperation(result.Throughput, result.Parallelism)),
			fmt.Sprintf("%d", result.FailedWorkers),
			fmt.Sprintf("%d", result.AbandonedWorkers),
		})
	}

	table.Render()
	return nil
}

// perOperation is the mean latency one worker saw per derivation.
func perOperation(throughput float64, parallelism int) time.Duration {
	if throughput <= 0 {
		return 0
	}
	return time.Duration(float64(parallelism) / throughput * float64(time.Second))
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.2fm", d.Minutes())
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", size, units[unit])
}
