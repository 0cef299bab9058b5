package dd

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// cpuSample is one reading of cumulative CPU time fields from
// /proc/stat's aggregate "cpu" line, in USER_HZ ticks.
type cpuSample struct {
	idle  uint64
	total uint64
}

// readCPUSample parses the first line of /proc/stat. Returns ok=false
// if the file cannot be read or parsed (e.g. non-Linux), in which
// case utilization throttling is simply disabled.
func readCPUSample() (cpuSample, bool) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return cpuSample{}, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return cpuSample{}, false
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return cpuSample{}, false
	}

	var sample cpuSample
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return cpuSample{}, false
		}

		sample.total += v
		// field index 3 (0-based within fields[1:]) is "idle".
		if i == 3 {
			sample.idle = v
		}
	}

	return sample, true
}

// currentUtilization samples /proc/stat twice over a short interval
// and returns the percentage of CPU time spent non-idle. Returns
// (0, false) if sampling is unavailable on this platform.
func currentUtilization(interval time.Duration) (float64, bool) {
	first, ok := readCPUSample()
	if !ok {
		return 0, false
	}

	time.Sleep(interval)

	second, ok := readCPUSample()
	if !ok {
		return 0, false
	}

	totalDelta := second.total - first.total
	if totalDelta == 0 {
		return 0, true
	}

	idleDelta := second.idle - first.idle

	return 100 * float64(totalDelta-idleDelta) / float64(totalDelta), true
}

const utilizationPollInterval = 100 * time.Millisecond

// waitForUtilization blocks until system CPU utilization falls at or
// below maxUtilization percent, or ctx is canceled. If utilization
// sampling is unavailable, it returns immediately - the throttle is
// best-effort, never a correctness requirement.
func waitForUtilization(ctx context.Context, maxUtilization float64) {
	for {
		util, ok := currentUtilization(utilizationPollInterval)
		if !ok || util <= maxUtilization {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(utilizationPollInterval):
		}
	}
}
