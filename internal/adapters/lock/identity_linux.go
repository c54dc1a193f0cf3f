//go:build linux

package lock

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const haveStartID = true

// startTicks returns the process start time in clock ticks since boot, from
// field 22 of /proc/<pid>/stat.
func startTicks(pid int) (int64, bool) {
	if pid <= 0 {
		return 0, false
	}
	// #nosec G304 -- fixed /proc path.
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}
	// comm may contain spaces and parentheses.
	s := string(data)
	if i := strings.LastIndexByte(s, ')'); i >= 0 {
		s = s[i+1:]
	}
	fields := strings.Fields(s)
	if len(fields) < 20 {
		return 0, false
	}
	ticks, err := strconv.ParseInt(fields[19], 10, 64)
	if err != nil {
		return 0, false
	}
	return ticks, true
}

func startID(pid int) (string, bool) {
	ticks, ok := startTicks(pid)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("ticks:%d", ticks), true
}
